package transcript

import (
	"encoding/json"
	"fmt"
	"os"

	"actcli/internal/seminar"
)

type StateResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Local     bool   `json:"local"`
	Version   string `json:"version"`
	LatencyMS int64  `json:"latency_ms"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// State is what the presenter page renders: the prompt, every round, and the
// synthesis if one ran.
type State struct {
	Timestamp    string          `json:"timestamp"`
	Prompt       string          `json:"prompt"`
	Rounds       [][]StateResult `json:"rounds"`
	Results      []StateResult   `json:"results"`
	Synthesis    string          `json:"synthesis,omitempty"`
	Disagreement *float64        `json:"disagreement,omitempty"`
}

func NewState(rep seminar.SessionReport) State {
	s := State{
		Timestamp: timestamp(rep.EndedAt),
		Prompt:    rep.Prompt,
		Rounds:    make([][]StateResult, 0, len(rep.Rounds)),
	}
	for _, round := range rep.Rounds {
		rs := make([]StateResult, 0, len(round))
		for _, r := range round {
			sr := StateResult{
				ID:        r.Descriptor.ID,
				Name:      r.Descriptor.DisplayName,
				Local:     r.Descriptor.IsLocal,
				Version:   r.Descriptor.ModelVersion,
				LatencyMS: r.LatencyMS(),
				Text:      r.Text,
			}
			if r.Err != nil {
				sr.Error = r.Err.Error()
			}
			rs = append(rs, sr)
		}
		s.Rounds = append(s.Rounds, rs)
	}
	if n := len(s.Rounds); n > 0 {
		s.Results = s.Rounds[n-1]
	}
	if rep.Synthesis != nil {
		s.Synthesis = rep.Synthesis.AgreementSummary
		d := rep.Synthesis.DisagreementScore
		s.Disagreement = &d
	}
	return s
}

func WriteState(path string, s State) error {
	return writeJSON(path, s)
}

// ReadState loads a state file written by WriteState.
func ReadState(path string) (State, error) {
	var s State
	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse state %s: %w", path, err)
	}
	return s, nil
}

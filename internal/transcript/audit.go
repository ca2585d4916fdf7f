package transcript

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"actcli/internal/seminar"
)

type Participant struct {
	ID      string `json:"id"`
	Local   bool   `json:"local"`
	Version string `json:"version"`
}

type Response struct {
	ID        string `json:"id"`
	LatencyMS int64  `json:"latency_ms"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	// Text is recorded only at audit level "full".
	Text string `json:"text,omitempty"`
}

// Audit is the machine-readable record of one session. It describes the
// final round; the prompt itself is kept only as length and hash unless the
// audit level is full.
type Audit struct {
	Version           string        `json:"actcli_version"`
	Timestamp         string        `json:"timestamp"`
	SessionID         string        `json:"session_id,omitempty"`
	PromptLen         int           `json:"prompt_len"`
	PromptHash        string        `json:"prompt_hash"`
	Prompt            string        `json:"prompt,omitempty"`
	Rounds            int           `json:"rounds"`
	Participants      []Participant `json:"participants"`
	Responses         []Response    `json:"responses"`
	DisagreementScore *float64      `json:"disagreement_score,omitempty"`
}

// NewAudit builds the audit record for rep. full adds prompt and response text.
func NewAudit(version, sessionID string, rep seminar.SessionReport, full bool) Audit {
	final := rep.Final()
	a := Audit{
		Version:      version,
		Timestamp:    timestamp(rep.EndedAt),
		SessionID:    sessionID,
		PromptLen:    utf8.RuneCountInString(rep.Prompt),
		PromptHash:   PromptHash(rep.Prompt),
		Rounds:       len(rep.Rounds),
		Participants: make([]Participant, 0, len(final)),
		Responses:    make([]Response, 0, len(final)),
	}
	if full {
		a.Prompt = rep.Prompt
	}
	for _, r := range final {
		a.Participants = append(a.Participants, Participant{
			ID:      r.Descriptor.ID,
			Local:   r.Descriptor.IsLocal,
			Version: r.Descriptor.ModelVersion,
		})
		resp := Response{ID: r.Descriptor.ID, LatencyMS: r.LatencyMS(), OK: r.OK()}
		if r.Err != nil {
			resp.Error = r.Err.Error()
		}
		if full {
			resp.Text = r.Text
		}
		a.Responses = append(a.Responses, resp)
	}
	if rep.Synthesis != nil {
		score := rep.Synthesis.DisagreementScore
		a.DisagreementScore = &score
	}
	return a
}

func WriteAudit(path string, a Audit) error {
	return writeJSON(path, a)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return writeFile(path, append(b, '\n'))
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

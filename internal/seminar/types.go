package seminar

import (
	"context"
	"time"
)

// Descriptor identifies one backend taking part in a seminar. It is read-only
// for the duration of a round.
type Descriptor struct {
	ID           string `json:"id"`
	DisplayName  string `json:"name"`
	IsLocal      bool   `json:"local"`
	ModelVersion string `json:"version"`
}

// GenerateOptions carries the per-call context handed to an adapter.
type GenerateOptions struct {
	System       string
	Seed         *int
	TimeoutHint  time.Duration
	RoundIndex   int
	PeerSnippets string
}

// Adapter is a single backend capable of answering a prompt. Generate may
// block; implementations should honour ctx cancellation but are not required to.
type Adapter interface {
	Descriptor() Descriptor
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// TurnResult is the outcome of one adapter call within a round. Exactly one of
// Text (non-empty) or Err is set.
type TurnResult struct {
	Descriptor Descriptor
	Text       string
	Latency    time.Duration
	Err        *TurnError
}

// OK reports whether the call produced usable text.
func (r TurnResult) OK() bool {
	return r.Err == nil && r.Text != ""
}

// LatencyMS is the recorded latency in whole milliseconds.
func (r TurnResult) LatencyMS() int64 {
	return r.Latency.Milliseconds()
}

// RoundContext is the read-only input of a single dispatch round.
type RoundContext struct {
	Prompt       string
	System       string
	RoundIndex   int
	PeerSnippets string
	Seed         *int
	Timeout      time.Duration
}

// SynthesisOutcome summarises lexical agreement across a round's responses.
type SynthesisOutcome struct {
	AgreementSummary  string  `json:"agreement_summary"`
	DisagreementScore float64 `json:"disagreement_score"`
}

// SessionReport holds every executed round in order. Rounds[0] is the direct
// answer round; later entries are critique rounds.
type SessionReport struct {
	Prompt    string
	StartedAt time.Time
	EndedAt   time.Time
	Rounds    [][]TurnResult
	Synthesis *SynthesisOutcome
}

// Round1 returns the direct-answer round.
func (s SessionReport) Round1() []TurnResult {
	return s.Round(1)
}

// Round2 returns the first critique round, or nil when it did not run.
func (s SessionReport) Round2() []TurnResult {
	return s.Round(2)
}

// Round returns results for the 1-based round index, or nil.
func (s SessionReport) Round(index int) []TurnResult {
	if index < 1 || index > len(s.Rounds) {
		return nil
	}
	return s.Rounds[index-1]
}

// Final returns the last executed round.
func (s SessionReport) Final() []TurnResult {
	if len(s.Rounds) == 0 {
		return nil
	}
	return s.Rounds[len(s.Rounds)-1]
}

package seminar

import (
	"context"
	"log/slog"
	"time"
)

const (
	MinRounds = 1
	MaxRounds = 3
)

// SessionConfig is fixed for the lifetime of one session.
type SessionConfig struct {
	Prompt  string
	System  string
	Rounds  int
	Timeout time.Duration
	Seed    *int
}

// RunSession runs a direct-answer round followed by up to two critique rounds.
// Each critique round quotes the previous round's successful responses. The
// synthesis is computed from the final round once at least one critique round
// has run.
func RunSession(ctx context.Context, adapters []Adapter, cfg SessionConfig) (SessionReport, error) {
	if len(adapters) == 0 {
		return SessionReport{}, preconditionf(ErrNoAdapters, "a session needs at least one adapter")
	}
	if cfg.Rounds < MinRounds || cfg.Rounds > MaxRounds {
		return SessionReport{}, preconditionf(ErrInvalidRounds, "rounds must be between %d and %d, got %d", MinRounds, MaxRounds, cfg.Rounds)
	}
	if cfg.Timeout <= 0 {
		return SessionReport{}, preconditionf(ErrInvalidTimeout, "timeout must be > 0, got %s", cfg.Timeout)
	}
	for i, a := range adapters {
		if a == nil {
			return SessionReport{}, preconditionf(ErrInvalidAdapter, "adapter at position %d is nil", i)
		}
	}

	report := SessionReport{
		Prompt:    cfg.Prompt,
		StartedAt: time.Now(),
		Rounds:    make([][]TurnResult, 0, cfg.Rounds),
	}
	snippets := ""
	for round := 1; round <= cfg.Rounds; round++ {
		results, err := DispatchRound(ctx, adapters, RoundContext{
			Prompt:       cfg.Prompt,
			System:       cfg.System,
			RoundIndex:   round,
			PeerSnippets: snippets,
			Seed:         cfg.Seed,
			Timeout:      cfg.Timeout,
		})
		if err != nil {
			return SessionReport{}, err
		}
		report.Rounds = append(report.Rounds, results)
		slog.Debug("seminar round finished", "round", round, "ok", countOK(results), "total", len(results))
		snippets = PeerSnippets(results)
	}

	if final := report.Final(); cfg.Rounds >= 2 && len(final) > 0 {
		outcome := Synthesize(final)
		report.Synthesis = &outcome
	}
	report.EndedAt = time.Now()
	return report, nil
}

func countOK(results []TurnResult) int {
	n := 0
	for _, r := range results {
		if r.OK() {
			n++
		}
	}
	return n
}

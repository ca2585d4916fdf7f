package seminar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DispatchRound sends one prompt to every adapter concurrently and waits until
// each call has succeeded, failed, or hit rc.Timeout. The returned slice has one
// entry per adapter, in input order. Per-adapter failures are recorded in the
// results; only precondition violations are returned as errors.
func DispatchRound(ctx context.Context, adapters []Adapter, rc RoundContext) ([]TurnResult, error) {
	if rc.Timeout <= 0 {
		return nil, preconditionf(ErrInvalidTimeout, "timeout must be > 0, got %s", rc.Timeout)
	}
	if rc.RoundIndex < 1 {
		return nil, preconditionf(ErrInvalidRounds, "round index must be >= 1, got %d", rc.RoundIndex)
	}
	descriptors := make([]Descriptor, len(adapters))
	for i, a := range adapters {
		if a == nil {
			return nil, preconditionf(ErrInvalidAdapter, "adapter at position %d is nil", i)
		}
		descriptors[i] = a.Descriptor()
	}

	results := make([]TurnResult, len(adapters))
	if len(adapters) == 0 {
		return results, nil
	}

	prompt := PromptForRound(rc)
	type unitEvent struct {
		index  int
		result TurnResult
	}
	events := make(chan unitEvent, len(adapters))
	for i := range adapters {
		go func(idx int) {
			events <- unitEvent{
				index:  idx,
				result: runUnit(ctx, adapters[idx], descriptors[idx], prompt, rc),
			}
		}(i)
	}
	for range adapters {
		ev := <-events
		results[ev.index] = ev.result
	}
	return results, nil
}

type unitReply struct {
	text string
	err  error
}

func runUnit(parent context.Context, a Adapter, desc Descriptor, prompt string, rc RoundContext) TurnResult {
	res := TurnResult{Descriptor: desc}
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, rc.Timeout)
	defer cancel()

	// Buffered so an adapter that ignores ctx can still finish and exit after
	// the unit has been abandoned.
	done := make(chan unitReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- unitReply{err: fmt.Errorf("adapter panic: %v", r)}
			}
		}()
		text, err := a.Generate(ctx, prompt, GenerateOptions{
			System:       rc.System,
			Seed:         rc.Seed,
			TimeoutHint:  rc.Timeout,
			RoundIndex:   rc.RoundIndex,
			PeerSnippets: rc.PeerSnippets,
		})
		done <- unitReply{text: text, err: err}
	}()

	select {
	case reply := <-done:
		res.Latency = time.Since(start)
		switch {
		case reply.err != nil && unitTimedOut(parent, ctx, reply.err):
			res.Latency = rc.Timeout
			res.Err = timeoutError()
		case reply.err != nil:
			res.Err = backendFailure(reply.err)
		default:
			res.Text = trimResponse(reply.text)
			if res.Text == "" {
				res.Err = emptyResponse()
			}
		}
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			res.Latency = time.Since(start)
			res.Err = backendFailure(err)
			break
		}
		res.Latency = rc.Timeout
		res.Err = timeoutError()
	}

	slog.Debug("seminar unit finished",
		"adapter", desc.ID,
		"round", rc.RoundIndex,
		"latency_ms", res.LatencyMS(),
		"outcome", unitOutcome(res),
	)
	return res
}

func unitTimedOut(parent, unit context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) &&
		errors.Is(unit.Err(), context.DeadlineExceeded) &&
		parent.Err() == nil
}

func unitOutcome(r TurnResult) string {
	if r.Err == nil {
		return "ok"
	}
	return string(r.Err.Kind)
}

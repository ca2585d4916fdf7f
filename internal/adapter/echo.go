package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"actcli/internal/seminar"
)

const (
	echoPromptChars  = 120
	echoQuoteWidth   = 160
	echoQuoteEllipse = "…"
)

// Echo is a local, dependency-free backend for demos and tests. Its replies are
// a pure function of the prompt and round.
type Echo struct {
	desc  seminar.Descriptor
	Delay time.Duration
}

func NewEcho(name, version string) *Echo {
	return &Echo{desc: seminar.Descriptor{ID: name, DisplayName: name, IsLocal: true, ModelVersion: version}}
}

func (e *Echo) Descriptor() seminar.Descriptor { return e.desc }

func (e *Echo) Generate(ctx context.Context, prompt string, opts seminar.GenerateOptions) (string, error) {
	if e.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.Delay):
		}
	}
	if opts.RoundIndex <= 1 {
		return fmt.Sprintf("Answer (simulated) to: %s", headRunes(prompt, echoPromptChars)), nil
	}
	parts := []string{"Refinement based on peers' snippets:"}
	if opts.PeerSnippets != "" {
		quoted := shorten(strings.ReplaceAll(opts.PeerSnippets, "\n", " "), echoQuoteWidth, echoQuoteEllipse)
		parts = append(parts, `Considering: "`+quoted+`"`)
	}
	parts = append(parts, "One next check: validate assumptions with a small sample.")
	return strings.Join(parts, "\n"), nil
}

func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// shorten collapses whitespace and drops trailing words until the text plus
// placeholder fits in width characters.
func shorten(s string, width int, placeholder string) string {
	words := strings.Fields(s)
	full := strings.Join(words, " ")
	if utf8.RuneCountInString(full) <= width {
		return full
	}
	limit := width - utf8.RuneCountInString(placeholder)
	kept := make([]string, 0, len(words))
	n := 0
	for _, w := range words {
		add := utf8.RuneCountInString(w)
		if len(kept) > 0 {
			add++
		}
		if n+add > limit {
			break
		}
		kept = append(kept, w)
		n += add
	}
	if len(kept) == 0 {
		return placeholder
	}
	return strings.Join(kept, " ") + placeholder
}

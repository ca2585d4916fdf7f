// Package transcript renders finished seminar sessions to disk: a markdown
// transcript for people, an audit record for tooling, and the state file the
// presenter page polls.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"actcli/internal/seminar"
)

// PromptHash fingerprints a prompt without storing it.
func PromptHash(prompt string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(prompt))
}

// Markdown renders every round of rep. header is shown as a quote under the
// title.
func Markdown(header string, rep seminar.SessionReport) string {
	var b strings.Builder
	b.WriteString("# ActCLI Roundtable\n\n")
	if header != "" {
		fmt.Fprintf(&b, "> %s\n\n", header)
	}
	fmt.Fprintf(&b, "## Prompt\n\n%s\n\n", rep.Prompt)
	for i, round := range rep.Rounds {
		if len(rep.Rounds) == 1 {
			b.WriteString("## Responses\n\n")
		} else if i == 0 {
			b.WriteString("## Round 1: Responses\n\n")
		} else {
			fmt.Fprintf(&b, "## Round %d: Critique\n\n", i+1)
		}
		for _, r := range round {
			fmt.Fprintf(&b, "### %s (%s) - %d ms\n\n", r.Descriptor.DisplayName, where(r.Descriptor.IsLocal), r.LatencyMS())
			if r.OK() {
				b.WriteString(r.Text)
			} else {
				fmt.Fprintf(&b, "_error: %s_", errorText(r))
			}
			b.WriteString("\n\n")
		}
	}
	if rep.Synthesis != nil {
		fmt.Fprintf(&b, "## Synthesis\n\n%s\n\nDisagreement score: %.2f\n", rep.Synthesis.AgreementSummary, rep.Synthesis.DisagreementScore)
	}
	return b.String()
}

// WriteMarkdown writes Markdown(header, rep) to path.
func WriteMarkdown(path, header string, rep seminar.SessionReport) error {
	return writeFile(path, []byte(Markdown(header, rep)))
}

func where(local bool) string {
	if local {
		return "local"
	}
	return "cloud"
}

func errorText(r seminar.TurnResult) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return "no output"
}

// writeFile replaces path atomically so watchers never observe a partial file.
func writeFile(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

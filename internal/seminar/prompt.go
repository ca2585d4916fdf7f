package seminar

import (
	"fmt"
	"strings"
)

const snippetMaxChars = 220

// PromptForRound returns the text sent to adapters: the user prompt for the
// first round, a critique prompt quoting peer snippets afterwards.
func PromptForRound(rc RoundContext) string {
	if rc.RoundIndex <= 1 {
		return rc.Prompt
	}
	return CritiquePrompt(rc.Prompt, rc.PeerSnippets)
}

func CritiquePrompt(prompt, snippets string) string {
	return fmt.Sprintf(
		"Original prompt: %s\nPeers said (snippets):\n%s\nCritique/support briefly and propose one next check.",
		prompt, snippets,
	)
}

// PeerSnippets quotes each successful response as "name: excerpt", one line
// per adapter in round order. Failed adapters contribute nothing.
func PeerSnippets(results []TurnResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if !r.OK() {
			continue
		}
		text := strings.ReplaceAll(r.Text, "\n", " ")
		lines = append(lines, r.Descriptor.DisplayName+": "+truncateRunes(text, snippetMaxChars))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func trimResponse(s string) string {
	return strings.TrimSpace(s)
}

package seminar

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const agreementPoints = 5

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Synthesize scores lexical overlap across the successful responses. The
// similarity is the Jaccard index of all token sets at once (n-way
// intersection over n-way union), not an average of pairs.
func Synthesize(results []TurnResult) SynthesisOutcome {
	sets := make([]map[string]struct{}, 0, len(results))
	for _, r := range results {
		if r.OK() {
			sets = append(sets, tokenize(r.Text))
		}
	}
	if len(sets) == 0 {
		return SynthesisOutcome{AgreementSummary: "No responses.", DisagreementScore: 0.0}
	}

	inter := copySet(sets[0])
	union := copySet(sets[0])
	for _, s := range sets[1:] {
		for tok := range inter {
			if _, ok := s[tok]; !ok {
				delete(inter, tok)
			}
		}
		for tok := range s {
			union[tok] = struct{}{}
		}
	}

	jaccard := 1.0
	if len(union) > 0 {
		jaccard = float64(len(inter)) / float64(len(union))
	}
	return SynthesisOutcome{
		AgreementSummary:  agreementSummary(inter),
		DisagreementScore: round2(1.0 - jaccard),
	}
}

func tokenize(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
		out[tok] = struct{}{}
	}
	return out
}

func agreementSummary(inter map[string]struct{}) string {
	if len(inter) == 0 {
		return "Agreements: (few)"
	}
	points := make([]string, 0, len(inter))
	for tok := range inter {
		points = append(points, tok)
	}
	sort.Strings(points)
	if len(points) > agreementPoints {
		points = points[:agreementPoints]
	}
	return "Agreements: " + strings.Join(points, ", ")
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

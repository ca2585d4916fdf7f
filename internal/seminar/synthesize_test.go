package seminar

import (
	"strings"
	"testing"
)

func okResult(name, text string) TurnResult {
	return TurnResult{Descriptor: Descriptor{ID: name, DisplayName: name}, Text: text}
}

func failedResult(name string) TurnResult {
	return TurnResult{Descriptor: Descriptor{ID: name, DisplayName: name}, Err: timeoutError()}
}

func TestSynthesizeIdenticalTexts(t *testing.T) {
	out := Synthesize([]TurnResult{okResult("a", "Answer X"), okResult("b", "Answer X")})
	if out.DisagreementScore != 0.0 {
		t.Fatalf("expected 0.0 disagreement, got %v", out.DisagreementScore)
	}
	if out.AgreementSummary != "Agreements: answer, x" {
		t.Fatalf("unexpected summary %q", out.AgreementSummary)
	}
}

func TestSynthesizeDisjointVocabularies(t *testing.T) {
	out := Synthesize([]TurnResult{okResult("a", "alpha beta"), okResult("b", "gamma delta")})
	if out.DisagreementScore != 1.0 {
		t.Fatalf("expected 1.0 disagreement, got %v", out.DisagreementScore)
	}
	if out.AgreementSummary != "Agreements: (few)" {
		t.Fatalf("unexpected summary %q", out.AgreementSummary)
	}
}

func TestSynthesizeNoResponses(t *testing.T) {
	for _, in := range [][]TurnResult{nil, {failedResult("a"), failedResult("b")}} {
		out := Synthesize(in)
		if out.AgreementSummary != "No responses." || out.DisagreementScore != 0.0 {
			t.Fatalf("unexpected outcome %+v", out)
		}
	}
}

func TestSynthesizeSingleResponse(t *testing.T) {
	out := Synthesize([]TurnResult{okResult("a", "only one voice here"), failedResult("b")})
	if out.DisagreementScore != 0.0 {
		t.Fatalf("single response should fully agree with itself, got %v", out.DisagreementScore)
	}
	if !strings.HasPrefix(out.AgreementSummary, "Agreements: ") || strings.Contains(out.AgreementSummary, "(few)") {
		t.Fatalf("unexpected summary %q", out.AgreementSummary)
	}
}

func TestSynthesizeNWayJaccard(t *testing.T) {
	// inter = {a}, union = {a, b, c, d} -> 0.25 similarity.
	out := Synthesize([]TurnResult{okResult("1", "a b"), okResult("2", "a c"), okResult("3", "A d")})
	if out.DisagreementScore != 0.75 {
		t.Fatalf("expected 0.75, got %v", out.DisagreementScore)
	}
	if out.AgreementSummary != "Agreements: a" {
		t.Fatalf("unexpected summary %q", out.AgreementSummary)
	}
}

func TestSynthesizeRoundsToTwoDecimals(t *testing.T) {
	// inter = {x}, union = {x, y, z} -> 1 - 1/3 = 0.666... -> 0.67
	out := Synthesize([]TurnResult{okResult("1", "x y"), okResult("2", "x z")})
	if out.DisagreementScore != 0.67 {
		t.Fatalf("expected 0.67, got %v", out.DisagreementScore)
	}
}

func TestSynthesizeSummaryCapsAtFivePointsAndIsStable(t *testing.T) {
	text := "zeta eta theta iota kappa lambda mu"
	in := []TurnResult{okResult("a", text), okResult("b", strings.ToUpper(text))}
	first := Synthesize(in)
	if got := strings.Count(strings.TrimPrefix(first.AgreementSummary, "Agreements: "), ",") + 1; got != 5 {
		t.Fatalf("expected 5 agreement points, got %d in %q", got, first.AgreementSummary)
	}
	for i := 0; i < 20; i++ {
		if again := Synthesize(in); again != first {
			t.Fatalf("synthesis not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestSynthesizeTokenizerSplitsOnPunctuation(t *testing.T) {
	out := Synthesize([]TurnResult{okResult("a", "foo_bar, baz-qux!"), okResult("b", "FOO_BAR baz qux")})
	if out.DisagreementScore != 0.0 {
		t.Fatalf("expected identical token sets, got %v (%s)", out.DisagreementScore, out.AgreementSummary)
	}
}

package main

import (
	"strings"
	"testing"
	"time"

	"actcli/internal/seminar"
)

func TestRenderReportShowsRoundsAndSynthesis(t *testing.T) {
	local := seminar.Descriptor{ID: "echo", DisplayName: "echo", IsLocal: true}
	cloud := seminar.Descriptor{ID: "gpt", DisplayName: "gpt-4o-mini(cloud)"}
	rep := seminar.SessionReport{
		Prompt: "p",
		Rounds: [][]seminar.TurnResult{
			{
				{Descriptor: local, Text: "alpha beta", Latency: 12 * time.Millisecond},
				{Descriptor: cloud, Err: &seminar.TurnError{Kind: seminar.KindTimeout}, Latency: 2 * time.Second},
			},
			{
				{Descriptor: local, Text: "gamma", Latency: 3 * time.Millisecond},
				{Descriptor: cloud, Text: "delta", Latency: 5 * time.Millisecond},
			},
		},
		Synthesis: &seminar.SynthesisOutcome{AgreementSummary: "No strong overlap detected.", DisagreementScore: 1},
	}
	got := renderReport(rep)
	for _, want := range []string{
		"Round 1 - direct answers",
		"Round 2 - critique & next checks",
		"12 ms",
		"2000 ms",
		"timeout",
		"gpt-4o-mini(cloud)",
		"No strong overlap detected.",
		"Disagreement score: 1.00",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("render missing %q:\n%s", want, got)
		}
	}
}

func TestRenderSingleRoundHasNoSynthesis(t *testing.T) {
	rep := seminar.SessionReport{Rounds: [][]seminar.TurnResult{{
		{Descriptor: seminar.Descriptor{ID: "echo", DisplayName: "echo"}, Text: "hi"},
	}}}
	got := renderReport(rep)
	if !strings.Contains(got, "Responses") || strings.Contains(got, "Synthesis") {
		t.Fatalf("unexpected render:\n%s", got)
	}
}

func TestResultCellTruncatesLongText(t *testing.T) {
	long := strings.Repeat("word ", textCellLimit)
	cell := resultCell(seminar.TurnResult{Descriptor: seminar.Descriptor{ID: "x"}, Text: long})
	if !strings.HasSuffix(cell, "…") || len([]rune(cell)) > textCellLimit {
		t.Fatalf("cell not truncated: %d runes", len([]rune(cell)))
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		512:              "512 B",
		2048:             "2.0 KiB",
		4_700_000_000:    "4.4 GiB",
		19 * 1024 * 1024: "19.0 MiB",
	}
	for in, want := range cases {
		if got := humanBytes(in); got != want {
			t.Fatalf("humanBytes(%d) = %q want %q", in, got, want)
		}
	}
}

func TestHelpExplainsCommand(t *testing.T) {
	out := captureStdout(t)
	if err := run([]string{"help", "history", "show"}); err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(out.String(), "actcli history show [--raw] <id|prefix>") {
		t.Fatalf("usage not shown:\n%s", out.String())
	}

	out.Reset()
	if err := run([]string{"help", "trust"}); err != nil {
		t.Fatalf("help search: %v", err)
	}
	if !strings.Contains(out.String(), "Closest commands") || !strings.Contains(out.String(), "trust revoke") {
		t.Fatalf("search results not shown:\n%s", out.String())
	}

	if err := run([]string{"help", "zzz"}); err == nil {
		t.Fatalf("expected unknown command error")
	}
}

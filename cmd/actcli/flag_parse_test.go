package main

import (
	"flag"
	"io"
	"strings"
	"testing"
)

func TestParseFlagsLooseAcceptsTrailingFlags(t *testing.T) {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	multi := fs.String("multi", "", "")
	rounds := fs.Int("rounds", 0, "")
	repl := fs.Bool("repl", false, "")

	rest, err := parseFlagsLoose(fs, []string{"Compare A vs B", "--multi", "echo,echo2", "--repl", "--rounds=3", "tail"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *multi != "echo,echo2" || *rounds != 3 || !*repl {
		t.Fatalf("flags not applied: multi=%q rounds=%d repl=%v", *multi, *rounds, *repl)
	}
	if strings.Join(rest, "|") != "Compare A vs B|tail" {
		t.Fatalf("positionals = %q", rest)
	}
}

func TestParseFlagsLooseDoubleDash(t *testing.T) {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	multi := fs.String("multi", "x", "")

	rest, err := parseFlagsLoose(fs, []string{"--", "--multi", "y"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *multi != "x" || strings.Join(rest, " ") != "--multi y" {
		t.Fatalf("double dash not honoured: multi=%q rest=%q", *multi, rest)
	}
}

func TestParseFlagsLooseUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := parseFlagsLoose(fs, []string{"--nope", "prompt"}); err == nil {
		t.Fatalf("expected unknown flag error")
	}
}

func TestParseFlagsLooseKeepsDashLeadingPrompt(t *testing.T) {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	rounds := fs.Int("rounds", 0, "")
	seed := fs.Int("seed", -1, "")

	rest, err := parseFlagsLoose(fs, []string{"-5% churn this quarter, why?", "--rounds", "2", "--seed", "-1", "-", "-42"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *rounds != 2 || *seed != -1 {
		t.Fatalf("flags not applied: rounds=%d seed=%d", *rounds, *seed)
	}
	if strings.Join(rest, "|") != "-5% churn this quarter, why?|-|-42" {
		t.Fatalf("positionals = %q", rest)
	}
}

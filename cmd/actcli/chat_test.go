package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"actcli/internal/seminar"
)

// captureStdout redirects CLI output for the duration of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

// isolate points user config at a temp dir and returns a fresh workspace.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("ACTCLI_CONFIG_DIR", t.TempDir())
	t.Setenv("ACTCLI_MODE", "")
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "DEEPSEEK_API_KEY"} {
		t.Setenv(k, "")
	}
	return t.TempDir()
}

func TestChatEchoRoundtableWritesOutputs(t *testing.T) {
	ws := isolate(t)
	out := captureStdout(t)

	md := filepath.Join(ws, "out", "seminar.md")
	audit := filepath.Join(ws, "out", "audit.json")
	err := run([]string{"chat", "--workspace", ws, "--multi", "echo,echo2", "--rounds", "2", "--timeout-ms", "2000",
		"--save", md, "--audit", audit, "Compare A vs B"})
	if err != nil {
		t.Fatalf("chat: %v\n%s", err, out.String())
	}
	for _, want := range []string{"Round 1 - direct answers", "Round 2 - critique", "Synthesis", "Answer (simulated) to: Compare A vs B"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}

	b, err := os.ReadFile(md)
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	if !strings.Contains(string(b), "## Round 2: Critique") || !strings.Contains(string(b), "Disagreement score:") {
		t.Fatalf("unexpected transcript:\n%s", b)
	}

	var rec struct {
		SessionID         string   `json:"session_id"`
		Prompt            string   `json:"prompt"`
		DisagreementScore *float64 `json:"disagreement_score"`
		Responses         []struct {
			ID string `json:"id"`
			OK bool   `json:"ok"`
		} `json:"responses"`
	}
	b, err = os.ReadFile(audit)
	if err != nil {
		t.Fatalf("audit not written: %v", err)
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		t.Fatalf("parse audit: %v", err)
	}
	if rec.DisagreementScore == nil || *rec.DisagreementScore < 0 || *rec.DisagreementScore > 1 {
		t.Fatalf("disagreement score out of range: %v", rec.DisagreementScore)
	}
	if len(rec.Responses) != 2 || rec.Responses[0].ID != "echo" || !rec.Responses[1].OK {
		t.Fatalf("unexpected responses %+v", rec.Responses)
	}
	if rec.Prompt != "" {
		t.Fatalf("prompt stored although audit level is off-lite")
	}

	out.Reset()
	if err := run([]string{"history", "list", "--workspace", ws}); err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out.String(), rec.SessionID[:historyIDWidth]) {
		t.Fatalf("history list missing session %s:\n%s", rec.SessionID, out.String())
	}

	out.Reset()
	if err := run([]string{"history", "show", "--workspace", ws, "--raw", rec.SessionID[:historyIDWidth]}); err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(out.String(), "## Prompt\n\nCompare A vs B") {
		t.Fatalf("history show did not render transcript:\n%s", out.String())
	}

	if err := run([]string{"history", "rm", "--workspace", ws, rec.SessionID}); err != nil {
		t.Fatalf("history rm: %v", err)
	}
	out.Reset()
	if err := run([]string{"history", "list", "--workspace", ws}); err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out.String(), "No sessions recorded yet.") {
		t.Fatalf("session not deleted:\n%s", out.String())
	}
}

func TestChatRefusesWritesOutsidePolicy(t *testing.T) {
	ws := isolate(t)
	captureStdout(t)

	outside := filepath.Join(ws, "notes.md")
	err := run([]string{"chat", "--workspace", ws, "--multi", "echo", "--rounds", "1", "--no-history", "--save", outside, "hello"})
	if err == nil || !strings.Contains(err.Error(), "denied by trust policy") {
		t.Fatalf("expected policy denial, got %v", err)
	}
	if _, err := os.Stat(outside); !os.IsNotExist(err) {
		t.Fatalf("file written despite denial: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws, "out", "history.db")); !os.IsNotExist(err) {
		t.Fatalf("history written despite --no-history")
	}
}

func TestChatExcludesCloudModelsUntilTrusted(t *testing.T) {
	ws := isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	out := captureStdout(t)

	if err := run([]string{"chat", "--workspace", ws, "--multi", "echo,claude", "--rounds", "1", "--no-history", "hi"}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(out.String(), "excluded cloud models claude") {
		t.Fatalf("cloud model not excluded:\n%s", out.String())
	}
	if strings.Contains(out.String(), "claude-3-haiku") {
		t.Fatalf("excluded model took part:\n%s", out.String())
	}
}

func TestChatConsumesOneTimeTrust(t *testing.T) {
	ws := isolate(t)
	out := captureStdout(t)

	if err := run([]string{"trust", "allow-once", "--workspace", ws, "--write", "./reports/**"}); err != nil {
		t.Fatalf("allow-once: %v", err)
	}
	report := filepath.Join(ws, "reports", "r.md")
	if err := run([]string{"chat", "--workspace", ws, "--multi", "echo", "--rounds", "1", "--no-history", "--save", report, "hi"}); err != nil {
		t.Fatalf("chat with one-time trust: %v", err)
	}
	if _, err := os.Stat(report); err != nil {
		t.Fatalf("report not written: %v", err)
	}

	out.Reset()
	if err := run([]string{"trust", "status", "--workspace", ws}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "untrusted") {
		t.Fatalf("one-time trust not consumed:\n%s", out.String())
	}
}

func TestChatWithoutUsableModels(t *testing.T) {
	ws := isolate(t)
	out := captureStdout(t)

	err := run([]string{"chat", "--workspace", ws, "--multi", "mystery", "hi"})
	if !errors.Is(err, seminar.ErrNoAdapters) {
		t.Fatalf("expected ErrNoAdapters, got %v", err)
	}
	if !strings.Contains(out.String(), `skipped: model "mystery"`) {
		t.Fatalf("construction failure not reported:\n%s", out.String())
	}
}

func TestChatUpdatesPreparedPresenter(t *testing.T) {
	ws := isolate(t)
	captureStdout(t)

	if err := os.MkdirAll(filepath.Join(ws, "out", "presenter"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := run([]string{"chat", "--workspace", ws, "--multi", "echo", "--rounds", "1", "--no-history", "live"}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(ws, "out", "presenter", "state.json"))
	if err != nil {
		t.Fatalf("presenter state not written: %v", err)
	}
	if !strings.Contains(string(b), `"prompt": "live"`) {
		t.Fatalf("unexpected state: %s", b)
	}
}

func TestInitValidateAndModelsAdd(t *testing.T) {
	ws := isolate(t)
	out := captureStdout(t)

	if err := run([]string{"init", "--workspace", ws, "--name", "demo"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := run([]string{"models", "add", "--workspace", ws, "--type", "echo", "--attend", "bot"}); err != nil {
		t.Fatalf("models add: %v", err)
	}
	out.Reset()
	if err := run([]string{"validate", "--workspace", ws}); err != nil {
		t.Fatalf("validate: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "1 declared model(s), 4 attending") {
		t.Fatalf("unexpected validate output:\n%s", out.String())
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	captureStdout(t)
	if err := run([]string{"--verbose", "bogus"}); err == nil || !strings.Contains(err.Error(), `unknown command "bogus"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStripVerbose(t *testing.T) {
	args, verbose := stripVerbose([]string{"-v", "--verbose", "chat", "-v"})
	if !verbose || strings.Join(args, " ") != "chat -v" {
		t.Fatalf("args=%q verbose=%v", args, verbose)
	}
}

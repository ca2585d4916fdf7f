package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"actcli/internal/adapter"
	"actcli/internal/history"
	"actcli/internal/presenter"
	"actcli/internal/project"
	"actcli/internal/seminar"
	"actcli/internal/transcript"
	"actcli/internal/trust"
)

const defaultPrompt = "Compare two reserving strategies and highlight trade-offs."

type chatOutputs struct {
	save           string
	audit          string
	presenterState string
}

// chatSession carries everything a roundtable needs besides the prompt. The
// REPL changes models, rounds and ollamaHost between runs.
type chatSession struct {
	ws         *workspace
	trustStore *trust.Store
	record     *trust.Record
	policy     trust.Policy

	models     []string
	rounds     int
	timeout    time.Duration
	system     string
	seed       *int
	ollamaHost string
	history    bool
}

// outcome is one finished roundtable plus the notes gathered while assembling
// its participants.
type outcome struct {
	report    seminar.SessionReport
	sessionID string
	failures  []error
	excluded  []string
	offline   bool
}

func cmdChat(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	multi := fs.String("multi", "", "comma separated model ids (default: defaults.models)")
	rounds := fs.Int("rounds", 0, "rounds 1-3 (default: defaults.rounds)")
	timeoutMS := fs.Int("timeout-ms", 0, "per-model timeout in milliseconds (default: defaults.timeout_ms)")
	system := fs.String("system", "", "system prompt sent to every model")
	seed := fs.Int("seed", -1, "seed forwarded to models that accept one (default: defaults.seed)")
	save := fs.String("save", "", "write a markdown transcript to this file")
	audit := fs.String("audit", "", "write an audit JSON record to this file")
	presenterState := fs.String("presenter-state", "", "write presenter state JSON to this file")
	repl := fs.Bool("repl", false, "start an interactive session")
	noHistory := fs.Bool("no-history", false, "do not record the session in history.db")
	ollamaHost := fs.String("ollama-host", "", "Ollama host override")
	rest, err := parseFlagsLoose(fs, args)
	if err != nil {
		return err
	}

	ws, verr, err := loadAndValidate(*workspaceDir)
	if err != nil {
		return err
	}
	if verr.HasErrors() {
		printValidation(verr)
		return verr
	}
	s, err := newChatSession(ws, *multi, *rounds, *timeoutMS, *system, *seed, *ollamaHost, !*noHistory)
	if err != nil {
		return err
	}

	defer s.releaseOnceTrust()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *repl {
		return runREPL(ctx, s)
	}

	prompt := strings.TrimSpace(strings.Join(rest, " "))
	if prompt == "" {
		prompt = defaultPrompt
	}
	out, err := s.run(ctx, prompt)
	printNotes(out)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, renderReport(out.report))
	return s.writeOutputs(out, chatOutputs{save: *save, audit: *audit, presenterState: *presenterState})
}

func newChatSession(ws *workspace, multi string, rounds, timeoutMS int, system string, seed int, ollamaHost string, keepHistory bool) (*chatSession, error) {
	store, err := trust.DefaultStore()
	if err != nil {
		return nil, err
	}
	rec, err := store.Get(ws.root)
	if err != nil {
		return nil, err
	}
	cfg := ws.cfg
	s := &chatSession{
		ws:         ws,
		trustStore: store,
		record:     rec,
		policy:     trust.Merge(rec),
		models:     cfg.Defaults.Models,
		rounds:     cfg.Defaults.Rounds,
		timeout:    cfg.Defaults.Timeout(),
		system:     coalesce(system, cfg.Defaults.SystemPrompt),
		ollamaHost: coalesce(ollamaHost, cfg.Defaults.OllamaHost),
		history:    keepHistory,
	}
	if ids := project.SplitList(multi); len(ids) > 0 {
		s.models = ids
	}
	if rounds != 0 {
		s.rounds = rounds
	}
	if timeoutMS != 0 {
		s.timeout = time.Duration(timeoutMS) * time.Millisecond
	}
	seedValue := cfg.Defaults.Seed
	if seed >= 0 {
		seedValue = seed
	}
	s.seed = &seedValue
	return s, nil
}

// run assembles participants, runs the roundtable and records it.
func (s *chatSession) run(ctx context.Context, prompt string) (outcome, error) {
	allowRemote := s.policy.AllowRemote(s.ws.cfg)
	asm := adapter.Assemble(s.models, s.ws.cfg, adapter.Options{OllamaHost: s.ollamaHost}, allowRemote)
	defer func() {
		if err := asm.Close(); err != nil {
			slog.Warn("close adapters", "err", err)
		}
	}()

	out := outcome{failures: asm.Failures, excluded: asm.Excluded, offline: s.ws.cfg.Offline()}
	if len(asm.Adapters) == 0 {
		return out, fmt.Errorf("no usable models among %s: %w", strings.Join(s.models, ","), seminar.ErrNoAdapters)
	}
	rep, err := seminar.RunSession(ctx, asm.Adapters, seminar.SessionConfig{
		Prompt:  prompt,
		System:  s.system,
		Rounds:  s.rounds,
		Timeout: s.timeout,
		Seed:    s.seed,
	})
	if err != nil {
		return out, err
	}
	out.report = rep
	out.sessionID = s.saveHistory(ctx, rep)
	return out, nil
}

// releaseOnceTrust drops an allow-once record when the chat command ends, so
// it covers a single one-shot run or a single REPL.
func (s *chatSession) releaseOnceTrust() {
	if err := s.trustStore.Consume(s.ws.root, s.record); err != nil {
		slog.Warn("consume one-time trust", "err", err)
	}
}

// saveHistory stores rep in history and returns its id. Sessions that are not
// recorded still get an id for their audit record.
func (s *chatSession) saveHistory(ctx context.Context, rep seminar.SessionReport) string {
	if !s.history {
		return uuid.NewString()
	}
	store, err := history.Open(history.DefaultPath(s.ws.outputDir()))
	if err != nil {
		slog.Warn("history unavailable", "err", err)
		return uuid.NewString()
	}
	defer store.Close()
	id, err := store.Save(ctx, rep)
	if err != nil {
		slog.Warn("history save failed", "err", err)
		return uuid.NewString()
	}
	return id
}

// writeOutputs writes the requested files. Each path must be allowed by the
// folder's write policy; one refused path does not stop the others.
func (s *chatSession) writeOutputs(out outcome, o chatOutputs) error {
	var errs []error
	write := func(path string, fn func(string) error) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err == nil {
			err = s.policy.CheckWrite(abs, s.ws.root)
		}
		if err == nil {
			err = fn(abs)
		}
		if err != nil {
			errs = append(errs, err)
			return
		}
		fmt.Fprintln(stdout, styles.Muted.Render("wrote "+abs))
	}

	rep := out.report
	write(o.save, func(p string) error {
		return transcript.WriteMarkdown(p, s.header(), rep)
	})
	write(o.audit, func(p string) error {
		full := s.ws.cfg.Defaults.AuditLevel == project.AuditFull
		return transcript.WriteAudit(p, transcript.NewAudit(version, out.sessionID, rep, full))
	})
	write(o.presenterState, func(p string) error {
		return transcript.WriteState(p, transcript.NewState(rep))
	})
	if o.presenterState == "" {
		s.updatePresenter(rep)
	}
	return errors.Join(errs...)
}

// updatePresenter refreshes the live presenter page when it has been set up
// for this workspace.
func (s *chatSession) updatePresenter(rep seminar.SessionReport) {
	dir := presenter.Dir(s.ws.outputDir())
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	path := presenter.StatePath(s.ws.outputDir())
	if err := s.policy.CheckWrite(path, s.ws.root); err != nil {
		slog.Warn("presenter state skipped", "err", err)
		return
	}
	if err := transcript.WriteState(path, transcript.NewState(rep)); err != nil {
		slog.Warn("presenter state write failed", "err", err)
	}
}

func (s *chatSession) header() string {
	return fmt.Sprintf("models: %s | rounds: %d | mode: %s", strings.Join(s.models, ", "), s.rounds, s.ws.cfg.Defaults.Mode)
}

func printNotes(out outcome) {
	for _, err := range out.failures {
		fmt.Fprintln(stdout, styles.Warning.Render("skipped: "+err.Error()))
	}
	if len(out.excluded) == 0 {
		return
	}
	reason := "folder is not trusted for cloud sharing (actcli trust allow-here --cloud-share)"
	if out.offline {
		reason = "mode is offline"
	}
	fmt.Fprintln(stdout, styles.Warning.Render(fmt.Sprintf("excluded cloud models %s: %s", strings.Join(out.excluded, ", "), reason)))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"actcli/internal/adapter"
	"actcli/internal/auth"
	"actcli/internal/trust"
)

type checkStatus string

const (
	checkOK   checkStatus = "ok"
	checkWarn checkStatus = "warn"
	checkInfo checkStatus = "info"
)

type check struct {
	Name   string
	Status checkStatus
	Detail string
}

func isInteractiveTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func cmdDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	ollamaHost := fs.String("ollama-host", "", "Ollama host override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checks := []check{{Name: "Go runtime", Status: checkOK, Detail: runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH}}
	if isInteractiveTerminal() {
		checks = append(checks, check{Name: "TTY", Status: checkOK, Detail: "interactive"})
	} else {
		checks = append(checks, check{Name: "TTY", Status: checkWarn, Detail: "non-interactive"})
	}

	ws, verr, err := loadAndValidate(*workspaceDir)
	switch {
	case err != nil:
		checks = append(checks, check{Name: "Config", Status: checkWarn, Detail: err.Error()})
	case verr.HasErrors():
		checks = append(checks, check{Name: "Config", Status: checkWarn, Detail: verr.Error()})
	default:
		checks = append(checks, check{Name: "Config", Status: checkOK, Detail: coalesce(ws.cfgPath, "built-in defaults")})
	}

	checks = append(checks, ollamaBinaryCheck(ctx))
	host := *ollamaHost
	if ws != nil {
		host = coalesce(host, ws.cfg.Defaults.OllamaHost)
	}
	checks = append(checks, ollamaServerCheck(ctx, adapter.OllamaHost(coalesce(host, os.Getenv("OLLAMA_HOST")))))

	registry := auth.NewRegistry(openAuthStore(), nil)
	for _, id := range registry.IDs() {
		status, err := registry.Status(id)
		if err != nil {
			continue
		}
		c := check{Name: id + " auth", Status: checkInfo, Detail: status}
		if status != auth.StatusUnauthenticated {
			c.Status = checkOK
		}
		checks = append(checks, c)
	}
	if ws != nil {
		checks = append(checks, trustCheck(ws))
	}

	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		rows = append(rows, []string{c.Name, statusLabel(c.Status), c.Detail})
	}
	printPanel(stdout, "Environment Checks", kvTable([]string{"Check", "Status", "Detail"}, rows))
	fmt.Fprintln(stdout, "Tip: run 'actcli auth login <provider>' to configure cloud models.")
	return nil
}

func statusLabel(s checkStatus) string {
	switch s {
	case checkOK:
		return styles.OK.Render("OK")
	case checkWarn:
		return styles.Warning.Render("WARN")
	default:
		return styles.Muted.Render("INFO")
	}
}

func ollamaBinaryCheck(ctx context.Context) check {
	path, err := exec.LookPath("ollama")
	if err != nil {
		return check{Name: "ollama", Status: checkWarn, Detail: "binary not found"}
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(cctx, path, "--version").CombinedOutput()
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if err != nil {
		return check{Name: "ollama", Status: checkWarn, Detail: coalesce(first, err.Error())}
	}
	return check{Name: "ollama", Status: checkOK, Detail: first}
}

func ollamaServerCheck(ctx context.Context, host string) check {
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	models, err := adapter.ListOllamaModels(cctx, nil, host)
	if err != nil {
		return check{Name: "ollama server", Status: checkWarn, Detail: host + " unreachable"}
	}
	return check{Name: "ollama server", Status: checkOK, Detail: fmt.Sprintf("%s (%d models)", host, len(models))}
}

func trustCheck(ws *workspace) check {
	store, err := trust.DefaultStore()
	if err != nil {
		return check{Name: "Trust", Status: checkWarn, Detail: err.Error()}
	}
	rec, err := store.Get(ws.root)
	if err != nil {
		return check{Name: "Trust", Status: checkWarn, Detail: err.Error()}
	}
	if rec == nil {
		return check{Name: "Trust", Status: checkInfo, Detail: "folder not trusted; local models only"}
	}
	detail := rec.Scope
	if trust.Merge(rec).AllowRemote(ws.cfg) {
		detail += ", cloud sharing on"
	} else {
		detail += ", cloud sharing off"
	}
	return check{Name: "Trust", Status: checkOK, Detail: detail}
}

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"actcli/internal/project"
	"actcli/internal/scaffold"
)

var version = "0.1.0"

// stdout receives all user-facing output; tests swap it.
var stdout io.Writer = os.Stdout

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	args, verbose := stripVerbose(args)
	setupLogging(verbose)

	if len(args) == 0 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "help", "-h", "--help":
		if len(args) > 1 {
			return cmdHelp(args[1:])
		}
		printUsage()
		return nil
	case "version", "--version":
		fmt.Fprintf(stdout, "actcli %s\n", version)
		return nil
	case "init":
		return cmdInit(args[1:])
	case "validate":
		return cmdValidate(args[1:])
	case "chat":
		return cmdChat(args[1:])
	case "doctor":
		return cmdDoctor(args[1:])
	case "auth":
		return cmdAuth(args[1:])
	case "trust":
		return cmdTrust(args[1:])
	case "models":
		return cmdModels(args[1:])
	case "history":
		return cmdHistory(args[1:])
	case "presenter":
		return cmdPresenter(args[1:])
	case "backend":
		return cmdBackend(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	w := stdout
	fmt.Fprintln(w, "actcli - multi-model roundtable in your terminal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  actcli [--verbose] <command> ...")
	fmt.Fprintln(w, "  actcli init [--workspace DIR] [--name NAME] [--ollama-host URL] [--force]")
	fmt.Fprintln(w, "  actcli validate [--workspace DIR]")
	fmt.Fprintln(w, `  actcli chat [--workspace DIR] [--multi a,b,c] [--rounds 1-3] [--timeout-ms N] [--seed N] [--system TEXT]`)
	fmt.Fprintln(w, `              [--save FILE.md] [--audit FILE.json] [--presenter-state FILE.json] [--no-history] "<prompt>"`)
	fmt.Fprintln(w, "  actcli chat --repl [--workspace DIR] [--multi a,b,c] [--rounds 1-3]")
	fmt.Fprintln(w, "  actcli doctor [--workspace DIR]")
	fmt.Fprintln(w, "  actcli auth status")
	fmt.Fprintln(w, "  actcli auth login [--method api-key|device|pkce] <openai|anthropic|google|deepseek>")
	fmt.Fprintln(w, "  actcli auth logout <provider>")
	fmt.Fprintln(w, "  actcli trust status|allow-here|allow-once|revoke [--workspace DIR] [--cloud-share]")
	fmt.Fprintln(w, "  actcli models list [--ollama-host URL]")
	fmt.Fprintln(w, "  actcli models pull [--ollama-host URL] [--models a,b] [--all]")
	fmt.Fprintln(w, "  actcli models add [--workspace DIR] --type TYPE [--model M] [--base-url URL] [--local true|false] [--attend] [--force] <id>")
	fmt.Fprintln(w, "  actcli history list [--workspace DIR] [--limit N]")
	fmt.Fprintln(w, "  actcli history show [--workspace DIR] [--raw] <id|prefix>")
	fmt.Fprintln(w, "  actcli history rm [--workspace DIR] <id|prefix>")
	fmt.Fprintln(w, "  actcli presenter [--workspace DIR] [--port N]")
	fmt.Fprintln(w, "  actcli backend serve [--workspace DIR] [--addr HOST:PORT] <model-id>")
	fmt.Fprintln(w, "  actcli version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, `Run "actcli help <command>" for details, e.g. actcli help trust allow-here`)
}

// stripVerbose removes leading --verbose/-v flags so every subcommand accepts
// them in the same position.
func stripVerbose(args []string) ([]string, bool) {
	verbose := false
	for len(args) > 0 && (args[0] == "--verbose" || args[0] == "-v") {
		verbose = true
		args = args[1:]
	}
	return args, verbose
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	} else {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("ACTCLI_LOG"))) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	workspace := fs.String("workspace", ".", "workspace path")
	name := fs.String("name", "", "project name (defaults to folder name)")
	ollamaHost := fs.String("ollama-host", "", "Ollama host to record in defaults")
	force := fs.Bool("force", false, "overwrite an existing actcli.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	abs, err := filepath.Abs(*workspace)
	if err != nil {
		return err
	}
	res, err := scaffold.InitWorkspace(abs, scaffold.InitOptions{ProjectName: *name, OllamaHost: *ollamaHost, Force: *force})
	if err != nil {
		return err
	}
	if !res.Created {
		fmt.Fprintf(stdout, "%s already exists (use --force to overwrite)\n", res.Path)
		return nil
	}
	cfg, err := project.ReadFile(res.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Created %s\n", res.Path)
	fmt.Fprintln(stdout, "Defaults:")
	fmt.Fprintf(stdout, "  models: %s\n", strings.Join(cfg.Defaults.Models, ","))
	fmt.Fprintf(stdout, "  mode: %s\n", cfg.Defaults.Mode)
	fmt.Fprintf(stdout, "  output_dir: %s\n", cfg.Defaults.OutputDir)
	fmt.Fprintf(stdout, "  ollama_host: %s\n", coalesce(cfg.Defaults.OllamaHost, "(none)"))
	fmt.Fprintln(stdout, "Next steps:")
	fmt.Fprintln(stdout, "  1. actcli doctor")
	fmt.Fprintln(stdout, "  2. actcli trust allow-here --cloud-share   (only if cloud models may see prompts)")
	fmt.Fprintln(stdout, `  3. actcli chat "Compare two reserving strategies"`)
	return nil
}

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	workspace := fs.String("workspace", ".", "workspace path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ws, verr, err := loadAndValidate(*workspace)
	if err != nil {
		return err
	}
	printValidation(verr)
	if verr.HasErrors() {
		return verr
	}
	src := ws.cfgPath
	if src == "" {
		src = "built-in defaults"
	}
	fmt.Fprintf(stdout, "Validation OK (%d declared model(s), %d attending) from %s\n", len(ws.cfg.Models), len(ws.cfg.Defaults.Models), src)
	return nil
}

// workspace is a loaded project: its root and immutable configuration.
type workspace struct {
	root    string
	cfg     *project.Config
	cfgPath string
}

func loadWorkspace(dir string) (*workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	cfg, path, err := project.Load(abs)
	if err != nil {
		return nil, err
	}
	return &workspace{root: abs, cfg: cfg, cfgPath: path}, nil
}

func loadAndValidate(dir string) (*workspace, *project.ValidationError, error) {
	ws, err := loadWorkspace(dir)
	if err != nil {
		return nil, nil, err
	}
	return ws, project.Validate(ws.cfg), nil
}

// outputDir resolves defaults.output_dir against the workspace root.
func (w *workspace) outputDir() string {
	out := w.cfg.Defaults.OutputDir
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(w.root, out)
}

func printValidation(verr *project.ValidationError) {
	if verr == nil || len(verr.Issues) == 0 {
		return
	}
	for _, issue := range verr.Issues {
		fmt.Fprintln(stdout, issue.String())
	}
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

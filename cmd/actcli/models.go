package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"actcli/internal/adapter"
	"actcli/internal/project"
	"actcli/internal/scaffold"
)

func cmdModels(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: actcli models list|pull|add")
	}
	switch args[0] {
	case "list":
		return cmdModelsList(args[1:])
	case "pull":
		return cmdModelsPull(args[1:])
	case "add":
		return cmdModelsAdd(args[1:])
	default:
		return fmt.Errorf("unknown models subcommand %q", args[0])
	}
}

// resolveOllamaHost picks the flag, then the workspace default, then
// OLLAMA_HOST.
func resolveOllamaHost(flagValue, workspaceDir string) string {
	host := flagValue
	if host == "" {
		if ws, err := loadWorkspace(workspaceDir); err == nil {
			host = ws.cfg.Defaults.OllamaHost
		}
	}
	return adapter.OllamaHost(coalesce(host, os.Getenv("OLLAMA_HOST")))
}

func cmdModelsList(args []string) error {
	fs := flag.NewFlagSet("models list", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	ollamaHost := fs.String("ollama-host", "", "Ollama host")
	if err := fs.Parse(args); err != nil {
		return err
	}
	host := resolveOllamaHost(*ollamaHost, *workspaceDir)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	models, err := adapter.ListOllamaModels(ctx, nil, host)
	if err != nil {
		return fmt.Errorf("unable to reach Ollama host %s: %w", host, err)
	}
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{m.Name, m.ModifiedAt, humanBytes(m.Size)})
	}
	printPanel(stdout, "Ollama models @ "+host, kvTable([]string{"Name", "Modified", "Size"}, rows))
	return nil
}

func cmdModelsPull(args []string) error {
	fs := flag.NewFlagSet("models pull", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	ollamaHost := fs.String("ollama-host", "", "Ollama host")
	models := fs.String("models", "", "comma separated models to pull")
	all := fs.Bool("all", false, "pull the recommended default set")
	rest, err := parseFlagsLoose(fs, args)
	if err != nil {
		return err
	}
	targets := append(project.SplitList(*models), rest...)
	if len(targets) == 0 && *all {
		targets = adapter.DefaultPullModels
	}
	if len(targets) == 0 {
		return fmt.Errorf("provide --models or use --all to pull defaults")
	}
	host := resolveOllamaHost(*ollamaHost, *workspaceDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, name := range targets {
		fmt.Fprintf(stdout, "Pulling %s @ %s ...\n", styles.Name.Render(name), host)
		last := ""
		err := adapter.PullOllamaModel(ctx, nil, host, name, func(p adapter.PullProgress) {
			line := p.Status
			if p.Total > 0 {
				line = fmt.Sprintf("%s %3d%%", p.Status, p.Completed*100/p.Total)
			}
			if line != "" && line != last {
				fmt.Fprintf(stdout, "  %s\n", line)
				last = line
			}
		})
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "  -> %s: %v\n", styles.Error.Render("failed"), err)
			continue
		}
		fmt.Fprintln(stdout, "  -> done")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pulls failed", failed, len(targets))
	}
	return nil
}

func cmdModelsAdd(args []string) error {
	fs := flag.NewFlagSet("models add", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	typ := fs.String("type", "", "echo|ollama|openai|deepseek|anthropic|gemini|http|grpc")
	model := fs.String("model", "", "vendor model name")
	baseURL := fs.String("base-url", "", "endpoint or host:port")
	apiKeyEnv := fs.String("api-key-env", "", "environment variable holding the API key")
	displayName := fs.String("display-name", "", "name shown in tables")
	local := fs.String("local", "", "override locality: true|false")
	attend := fs.Bool("attend", false, "also add the model to defaults.models")
	force := fs.Bool("force", false, "overwrite an existing declaration")
	rest, err := parseFlagsLoose(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: actcli models add --type TYPE [flags] <id>")
	}
	var localPtr *bool
	if *local != "" {
		v, err := strconv.ParseBool(*local)
		if err != nil {
			return fmt.Errorf("invalid --local %q: %w", *local, err)
		}
		localPtr = &v
	}
	abs, err := filepath.Abs(*workspaceDir)
	if err != nil {
		return err
	}
	path := filepath.Join(abs, project.ConfigFile)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s not found (run actcli init first): %w", path, err)
	}
	cfg, err := scaffold.AddModel(path, scaffold.ModelOptions{
		ID:          rest[0],
		Type:        *typ,
		Model:       *model,
		BaseURL:     *baseURL,
		APIKeyEnv:   *apiKeyEnv,
		DisplayName: *displayName,
		Local:       localPtr,
		Attend:      *attend,
		Force:       *force,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Declared model %q (%s) in %s\n", rest[0], *typ, path)
	if *attend {
		fmt.Fprintf(stdout, "Attending: %v\n", cfg.Defaults.Models)
	}
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

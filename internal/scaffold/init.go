package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"actcli/internal/project"
)

type InitOptions struct {
	ProjectName string
	OllamaHost  string
	Force       bool
}

// InitResult reports what InitWorkspace did.
type InitResult struct {
	Path    string
	Created bool
}

// InitWorkspace writes actcli.yaml and the output directory. An existing
// config is left untouched unless Force is set.
func InitWorkspace(workspace string, opts InitOptions) (InitResult, error) {
	path := filepath.Join(workspace, project.ConfigFile)
	res := InitResult{Path: path}
	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return res, nil
		} else if !os.IsNotExist(err) {
			return res, fmt.Errorf("stat %s: %w", path, err)
		}
	}
	name := strings.TrimSpace(opts.ProjectName)
	if name == "" {
		abs, err := filepath.Abs(workspace)
		if err != nil {
			return res, fmt.Errorf("resolve workspace: %w", err)
		}
		name = filepath.Base(abs)
	}
	if err := os.WriteFile(path, []byte(renderConfigTemplate(name, opts.OllamaHost)), 0o644); err != nil {
		return res, fmt.Errorf("write %s: %w", path, err)
	}
	out := filepath.Join(workspace, project.Default().Defaults.OutputDir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return res, fmt.Errorf("create %s: %w", out, err)
	}
	res.Created = true
	return res, nil
}

func renderConfigTemplate(name, ollamaHost string) string {
	def := project.Default().Defaults
	var b strings.Builder
	b.WriteString("version: 1\n")
	b.WriteString("project:\n")
	fmt.Fprintf(&b, "  name: %s\n", yamlScalar(name))
	b.WriteString("  version: \"0.1\"\n")
	b.WriteString("defaults:\n")
	fmt.Fprintf(&b, "  mode: %s            # offline | hybrid\n", def.Mode)
	fmt.Fprintf(&b, "  audit_level: %s  # full | off-lite\n", def.AuditLevel)
	fmt.Fprintf(&b, "  seed: %d\n", def.Seed)
	fmt.Fprintf(&b, "  output_dir: %s\n", def.OutputDir)
	fmt.Fprintf(&b, "  models: [%s]\n", strings.Join(def.Models, ", "))
	fmt.Fprintf(&b, "  rounds: %d               # 1..3\n", def.Rounds)
	fmt.Fprintf(&b, "  timeout_ms: %d\n", def.TimeoutMS)
	if h := strings.TrimSpace(ollamaHost); h != "" {
		fmt.Fprintf(&b, "  ollama_host: %s\n", yamlScalar(h))
	} else {
		b.WriteString("  # ollama_host: http://127.0.0.1:11434\n")
	}
	b.WriteString("  # system_prompt: Answer briefly and state assumptions.\n")
	b.WriteString("# models:\n")
	b.WriteString("#   - id: lab\n")
	b.WriteString("#     type: http                # echo | ollama | openai | deepseek | anthropic | gemini | http | grpc\n")
	b.WriteString("#     base_url: http://127.0.0.1:9000/generate\n")
	b.WriteString("#     local: true\n")
	return b.String()
}

func yamlScalar(s string) string {
	if s == "" {
		return `""`
	}
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

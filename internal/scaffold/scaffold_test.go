package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"actcli/internal/project"
)

func TestInitWorkspaceWritesLoadableConfig(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	res, err := InitWorkspace(ws, InitOptions{ProjectName: "demo", OllamaHost: "http://10.0.0.2:11434"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !res.Created || res.Path != filepath.Join(ws, project.ConfigFile) {
		t.Fatalf("unexpected result %+v", res)
	}
	cfg, err := project.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("load generated config: %v", err)
	}
	if verr := project.Validate(cfg); verr != nil {
		t.Fatalf("generated config has issues: %v", verr.Issues)
	}
	if cfg.Project.Name != "demo" || cfg.Defaults.OllamaHost != "http://10.0.0.2:11434" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if strings.Join(cfg.Defaults.Models, ",") != "llama3,claude,gpt" || cfg.Defaults.Rounds != 2 {
		t.Fatalf("defaults not rendered: %+v", cfg.Defaults)
	}
	if info, err := os.Stat(filepath.Join(ws, "out")); err != nil || !info.IsDir() {
		t.Fatalf("output dir missing: %v", err)
	}
}

func TestInitWorkspaceKeepsExistingConfig(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	path := filepath.Join(ws, project.ConfigFile)
	if err := os.WriteFile(path, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := InitWorkspace(ws, InitOptions{})
	if err != nil || res.Created {
		t.Fatalf("existing config should be kept: %+v %v", res, err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "version: 1\n" {
		t.Fatalf("config overwritten: %q", b)
	}

	res, err = InitWorkspace(ws, InitOptions{Force: true})
	if err != nil || !res.Created {
		t.Fatalf("force should rewrite: %+v %v", res, err)
	}
	cfg, err := project.ReadFile(path)
	if err != nil || cfg.Project.Name != filepath.Base(ws) {
		t.Fatalf("project name should default to folder name: %+v %v", cfg, err)
	}
}

func TestAddModel(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	res, err := InitWorkspace(ws, InitOptions{ProjectName: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	local := true
	cfg, err := AddModel(res.Path, ModelOptions{ID: "lab", Type: "http", BaseURL: "http://127.0.0.1:9000/gen", Local: &local, Attend: true})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(cfg.Models) != 1 || cfg.Defaults.Models[len(cfg.Defaults.Models)-1] != "lab" {
		t.Fatalf("model not added: %+v", cfg)
	}

	reloaded, err := project.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	mc, ok := reloaded.Model("lab")
	if !ok || mc.BaseURL != "http://127.0.0.1:9000/gen" || mc.Local == nil || !*mc.Local {
		t.Fatalf("model not persisted: %+v", mc)
	}

	if _, err := AddModel(res.Path, ModelOptions{ID: "lab", Type: "http", BaseURL: "http://x"}); err == nil {
		t.Fatalf("duplicate without force should fail")
	}
	if _, err := AddModel(res.Path, ModelOptions{ID: "lab", Type: "http", BaseURL: "http://x", Force: true}); err != nil {
		t.Fatalf("force overwrite: %v", err)
	}
}

func TestAddModelRejectsBadInput(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	res, _ := InitWorkspace(ws, InitOptions{})
	cases := []ModelOptions{
		{ID: "", Type: "echo"},
		{ID: "bad id", Type: "echo"},
		{ID: "x", Type: "telnet"},
		{ID: "g", Type: "grpc"},
	}
	for _, opts := range cases {
		if _, err := AddModel(res.Path, opts); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
}

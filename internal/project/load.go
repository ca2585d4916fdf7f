package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFile = "actcli.yaml"
	AppName    = "actcli"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version: 1,
		Defaults: Defaults{
			Mode:       ModeHybrid,
			AuditLevel: AuditOffLite,
			Seed:       42,
			OutputDir:  "out",
			Models:     []string{"llama3", "claude", "gpt"},
			Rounds:     2,
			TimeoutMS:  25000,
		},
	}
}

// UserConfigDir is where user-level config, trust records and credentials
// live. ACTCLI_CONFIG_DIR overrides it.
func UserConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("ACTCLI_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load reads ./actcli.yaml from workspace, falling back to the user config
// file. It returns the path that was read, or "" when defaults were used.
func Load(workspace string) (*Config, string, error) {
	projectPath := filepath.Join(workspace, ConfigFile)
	if _, err := os.Stat(projectPath); err == nil {
		cfg, err := LoadFile(projectPath)
		return cfg, projectPath, err
	}
	dir, err := UserConfigDir()
	if err != nil {
		return applyEnv(Default()), "", nil
	}
	userPath := filepath.Join(dir, ConfigFile)
	cfg, err := LoadFile(userPath)
	if errors.Is(err, os.ErrNotExist) {
		return applyEnv(Default()), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// LoadFile parses one config file, filling unset fields from Default and
// applying environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return applyEnv(cfg), nil
}

// ReadFile parses one config file without environment overrides, for callers
// that write the config back.
func ReadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	fillDefaults(cfg)
	return cfg, nil
}

func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Version == 0 {
		cfg.Version = def.Version
	}
	d := &cfg.Defaults
	if strings.TrimSpace(d.Mode) == "" {
		d.Mode = def.Defaults.Mode
	}
	if strings.TrimSpace(d.AuditLevel) == "" {
		d.AuditLevel = def.Defaults.AuditLevel
	}
	if strings.TrimSpace(d.OutputDir) == "" {
		d.OutputDir = def.Defaults.OutputDir
	}
	if len(d.Models) == 0 {
		d.Models = def.Defaults.Models
	}
	if d.Rounds == 0 {
		d.Rounds = def.Defaults.Rounds
	}
	if d.TimeoutMS == 0 {
		d.TimeoutMS = def.Defaults.TimeoutMS
	}
}

func applyEnv(cfg *Config) *Config {
	if mode := strings.ToLower(strings.TrimSpace(os.Getenv("ACTCLI_MODE"))); mode != "" {
		cfg.Defaults.Mode = mode
	}
	return cfg
}

// SplitList parses a comma separated list such as --multi, dropping blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package project

import (
	"fmt"
	"time"
)

const (
	ModeOffline = "offline"
	ModeHybrid  = "hybrid"

	AuditFull    = "full"
	AuditOffLite = "off-lite"
)

type Config struct {
	Version  int           `yaml:"version"`
	Project  ProjectInfo   `yaml:"project"`
	Defaults Defaults      `yaml:"defaults"`
	Models   []ModelConfig `yaml:"models,omitempty"`
}

type ProjectInfo struct {
	Name    string `yaml:"name,omitempty"`
	Version string `yaml:"version,omitempty"`
}

type Defaults struct {
	Mode         string   `yaml:"mode"`
	AuditLevel   string   `yaml:"audit_level"`
	Seed         int      `yaml:"seed"`
	OutputDir    string   `yaml:"output_dir"`
	Models       []string `yaml:"models"`
	Rounds       int      `yaml:"rounds"`
	TimeoutMS    int      `yaml:"timeout_ms"`
	OllamaHost   string   `yaml:"ollama_host,omitempty"`
	SystemPrompt string   `yaml:"system_prompt,omitempty"`
}

// ModelConfig declares one backend a seminar can invite. Models referenced by
// id but not declared here are resolved heuristically by the adapter package.
type ModelConfig struct {
	ID          string            `yaml:"id"`
	Type        string            `yaml:"type"`
	Model       string            `yaml:"model,omitempty"`
	DisplayName string            `yaml:"display_name,omitempty"`
	BaseURL     string            `yaml:"base_url,omitempty"`
	APIKeyEnv   string            `yaml:"api_key_env,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Local       *bool             `yaml:"local,omitempty"`
	MaxTokens   int               `yaml:"max_tokens,omitempty"`
}

// Timeout is the per-call bound configured for rounds.
func (d Defaults) Timeout() time.Duration {
	return time.Duration(d.TimeoutMS) * time.Millisecond
}

// Offline reports whether cloud backends are disallowed by configuration.
func (c *Config) Offline() bool {
	return c != nil && c.Defaults.Mode == ModeOffline
}

// Model returns the declared model with the given id.
func (c *Config) Model(id string) (ModelConfig, bool) {
	if c == nil {
		return ModelConfig{}, false
	}
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelConfig{}, false
}

type IssueLevel string

const (
	IssueError   IssueLevel = "error"
	IssueWarning IssueLevel = "warning"
)

type Issue struct {
	Level   IssueLevel
	Path    string
	Field   string
	Message string
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("[%s] %s: %s", i.Level, i.Path, i.Message)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", i.Level, i.Path, i.Field, i.Message)
}

type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed with %d issue(s)", len(e.Issues))
}

func (e *ValidationError) HasErrors() bool {
	if e == nil {
		return false
	}
	for _, it := range e.Issues {
		if it.Level == IssueError {
			return true
		}
	}
	return false
}

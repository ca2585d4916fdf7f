package project

import (
	"fmt"
	"strings"
)

var validModelTypes = map[string]struct{}{
	"echo":      {},
	"ollama":    {},
	"openai":    {},
	"deepseek":  {},
	"anthropic": {},
	"gemini":    {},
	"http":      {},
	"grpc":      {},
}

var validModes = map[string]struct{}{
	ModeOffline: {},
	ModeHybrid:  {},
}

var validAuditLevels = map[string]struct{}{
	AuditFull:    {},
	AuditOffLite: {},
}

// ValidModelType reports whether t names a supported adapter type.
func ValidModelType(t string) bool {
	_, ok := validModelTypes[t]
	return ok
}

func Validate(cfg *Config) *ValidationError {
	issues := []Issue{}
	if cfg == nil {
		issues = append(issues, Issue{Level: IssueError, Path: ConfigFile, Message: "config is nil"})
		return &ValidationError{Issues: issues}
	}

	if cfg.Version <= 0 {
		issues = append(issues, Issue{Level: IssueError, Path: ConfigFile, Field: "version", Message: "must be >= 1"})
	}

	d := cfg.Defaults
	if _, ok := validModes[d.Mode]; !ok {
		issues = append(issues, Issue{Level: IssueError, Path: ConfigFile, Field: "defaults.mode", Message: "must be offline or hybrid"})
	}
	if _, ok := validAuditLevels[d.AuditLevel]; !ok {
		issues = append(issues, Issue{Level: IssueError, Path: ConfigFile, Field: "defaults.audit_level", Message: "must be full or off-lite"})
	}
	if d.Rounds < 1 || d.Rounds > 3 {
		issues = append(issues, Issue{Level: IssueError, Path: ConfigFile, Field: "defaults.rounds", Message: "must be between 1 and 3"})
	}
	if d.TimeoutMS <= 0 {
		issues = append(issues, Issue{Level: IssueError, Path: ConfigFile, Field: "defaults.timeout_ms", Message: "must be > 0"})
	}
	if strings.TrimSpace(d.OutputDir) == "" {
		issues = append(issues, Issue{Level: IssueWarning, Path: ConfigFile, Field: "defaults.output_dir", Message: "empty value writes transcripts to the working directory"})
	}
	if len(d.Models) == 0 {
		issues = append(issues, Issue{Level: IssueWarning, Path: ConfigFile, Field: "defaults.models", Message: "no default models; chat will require --multi"})
	}

	seen := map[string]struct{}{}
	for i, m := range cfg.Models {
		path := fmt.Sprintf("%s.models[%d]", ConfigFile, i)
		if strings.TrimSpace(m.ID) == "" {
			issues = append(issues, Issue{Level: IssueError, Path: path, Field: "id", Message: "is required"})
			continue
		}
		if _, dup := seen[m.ID]; dup {
			issues = append(issues, Issue{Level: IssueError, Path: path, Field: "id", Message: "duplicate model id"})
		}
		seen[m.ID] = struct{}{}
		if !ValidModelType(m.Type) {
			issues = append(issues, Issue{Level: IssueError, Path: path, Field: "type", Message: "unsupported model type"})
		}
		if (m.Type == "http" || m.Type == "grpc") && strings.TrimSpace(m.BaseURL) == "" {
			issues = append(issues, Issue{Level: IssueError, Path: path, Field: "base_url", Message: "is required for " + m.Type + " models"})
		}
		if m.MaxTokens < 0 {
			issues = append(issues, Issue{Level: IssueError, Path: path, Field: "max_tokens", Message: "must be >= 0"})
		}
		if m.Type == "echo" && m.Local != nil && !*m.Local {
			issues = append(issues, Issue{Level: IssueWarning, Path: path, Field: "local", Message: "echo models always run locally"})
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

package scaffold

import (
	"fmt"
	"regexp"
	"strings"

	"actcli/internal/project"
)

var modelIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

type ModelOptions struct {
	ID          string
	Type        string
	Model       string
	BaseURL     string
	APIKeyEnv   string
	DisplayName string
	Local       *bool
	// Attend also adds the id to defaults.models.
	Attend bool
	Force  bool
}

// AddModel declares a model in the config file at path and saves it.
func AddModel(path string, opts ModelOptions) (*project.Config, error) {
	id := strings.TrimSpace(opts.ID)
	if id == "" {
		return nil, fmt.Errorf("model id is required")
	}
	if !modelIDPattern.MatchString(id) {
		return nil, fmt.Errorf("invalid model id %q (use letters, numbers, _ . : or -)", id)
	}
	if !project.ValidModelType(opts.Type) {
		return nil, fmt.Errorf("unsupported model type %q", opts.Type)
	}

	cfg, err := project.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mc := project.ModelConfig{
		ID:          id,
		Type:        opts.Type,
		Model:       strings.TrimSpace(opts.Model),
		BaseURL:     strings.TrimSpace(opts.BaseURL),
		APIKeyEnv:   strings.TrimSpace(opts.APIKeyEnv),
		DisplayName: strings.TrimSpace(opts.DisplayName),
		Local:       opts.Local,
	}
	replaced := false
	for i := range cfg.Models {
		if cfg.Models[i].ID != id {
			continue
		}
		if !opts.Force {
			return nil, fmt.Errorf("model %q already declared (use --force to overwrite)", id)
		}
		cfg.Models[i] = mc
		replaced = true
	}
	if !replaced {
		cfg.Models = append(cfg.Models, mc)
	}
	if opts.Attend && !contains(cfg.Defaults.Models, id) {
		cfg.Defaults.Models = append(cfg.Defaults.Models, id)
	}
	if verr := project.Validate(cfg); verr != nil && verr.HasErrors() {
		return nil, verr
	}
	if err := project.Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

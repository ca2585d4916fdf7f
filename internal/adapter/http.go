package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"actcli/internal/project"
	"actcli/internal/seminar"
)

// HTTP posts the prompt to an arbitrary JSON endpoint and reads the reply from
// a "text", "output" or "response" field, falling back to the raw body.
type HTTP struct {
	cfg    project.ModelConfig
	desc   seminar.Descriptor
	client *http.Client
	getenv func(string) string
}

func newHTTP(mc project.ModelConfig, opts Options) (*HTTP, error) {
	if strings.TrimSpace(mc.BaseURL) == "" {
		return nil, errors.New("base_url is required for http models")
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return &HTTP{
		cfg:    mc,
		desc:   describe(mc, coalesce(mc.Model, mc.ID), false),
		client: opts.httpClient(),
		getenv: getenv,
	}, nil
}

func (p *HTTP) Descriptor() seminar.Descriptor { return p.desc }

func (p *HTTP) Generate(ctx context.Context, prompt string, opts seminar.GenerateOptions) (string, error) {
	payload := map[string]any{
		"model":         coalesce(p.cfg.Model, p.cfg.ID),
		"system_prompt": opts.System,
		"input":         prompt,
		"round":         opts.RoundIndex,
	}
	if opts.PeerSnippets != "" {
		payload["peer_snippets"] = opts.PeerSnippets
	}
	if opts.Seed != nil {
		payload["seed"] = *opts.Seed
	}
	headers := map[string]string{}
	for k, v := range p.cfg.Headers {
		headers[k] = v
	}
	if p.cfg.APIKeyEnv != "" {
		if key := p.getenv(p.cfg.APIKeyEnv); key != "" {
			headers["Authorization"] = "Bearer " + key
		}
	}
	body, _, err := postJSON(ctx, p.client, "http model", p.cfg.BaseURL, headers, payload)
	if err != nil {
		return "", err
	}
	var generic map[string]any
	if json.Unmarshal(body, &generic) == nil {
		for _, key := range []string{"text", "output", "response"} {
			if s, ok := generic[key].(string); ok {
				return strings.TrimSpace(s), nil
			}
		}
	}
	return strings.TrimSpace(string(body)), nil
}

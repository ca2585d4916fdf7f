package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"actcli/internal/project"
	"actcli/internal/seminar"
)

const (
	defaultAnthropicModel = "claude-3-haiku-20240307"
	anthropicBaseURL      = "https://api.anthropic.com"
	anthropicVersion      = "2023-06-01"
	anthropicMaxTokens    = 1024
)

type Anthropic struct {
	desc      seminar.Descriptor
	model     string
	url       string
	apiKey    string
	maxTokens int
	headers   map[string]string
	client    *http.Client
}

func newAnthropic(mc project.ModelConfig, opts Options) (*Anthropic, error) {
	keyEnv := coalesce(strings.TrimSpace(mc.APIKeyEnv), "ANTHROPIC_API_KEY")
	key := strings.TrimSpace(opts.getenv(keyEnv))
	if key == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrMissingCredential, keyEnv)
	}
	model := coalesce(mc.Model, defaultAnthropicModel)
	maxTokens := mc.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}
	return &Anthropic{
		desc:      describe(mc, model, false),
		model:     model,
		url:       strings.TrimRight(coalesce(mc.BaseURL, anthropicBaseURL), "/") + "/v1/messages",
		apiKey:    key,
		maxTokens: maxTokens,
		headers:   mc.Headers,
		client:    opts.httpClient(),
	}, nil
}

func (a *Anthropic) Descriptor() seminar.Descriptor { return a.desc }

func (a *Anthropic) Generate(ctx context.Context, prompt string, opts seminar.GenerateOptions) (string, error) {
	payload := map[string]any{
		"model":      a.model,
		"max_tokens": a.maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if strings.TrimSpace(opts.System) != "" {
		payload["system"] = opts.System
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	for k, v := range a.headers {
		headers[k] = v
	}
	body, _, err := postJSON(ctx, a.client, "anthropic", a.url, headers, payload)
	if err != nil {
		return "", err
	}
	var out struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Completion string `json:"completion"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse anthropic response: %w", err)
	}
	for _, c := range out.Content {
		if c.Text != "" {
			return strings.TrimSpace(c.Text), nil
		}
	}
	return strings.TrimSpace(out.Completion), nil
}

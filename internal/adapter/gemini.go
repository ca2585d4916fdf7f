package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"actcli/internal/project"
	"actcli/internal/seminar"
)

const (
	defaultGeminiModel = "gemini-1.5-flash-latest"
	geminiBaseURL      = "https://generativelanguage.googleapis.com"
)

type Gemini struct {
	desc   seminar.Descriptor
	model  string
	base   string
	apiKey string
	client *http.Client
}

func newGemini(mc project.ModelConfig, opts Options) (*Gemini, error) {
	keyEnv := coalesce(strings.TrimSpace(mc.APIKeyEnv), "GOOGLE_API_KEY")
	key := strings.TrimSpace(opts.getenv(keyEnv))
	if key == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrMissingCredential, keyEnv)
	}
	model := coalesce(mc.Model, defaultGeminiModel)
	return &Gemini{
		desc:   describe(mc, model, false),
		model:  model,
		base:   strings.TrimRight(coalesce(mc.BaseURL, geminiBaseURL), "/"),
		apiKey: key,
		client: opts.httpClient(),
	}, nil
}

func (g *Gemini) Descriptor() seminar.Descriptor { return g.desc }

func (g *Gemini) Generate(ctx context.Context, prompt string, opts seminar.GenerateOptions) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s", g.base, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	payload := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]any{{"text": prompt}}},
		},
	}
	if strings.TrimSpace(opts.System) != "" {
		payload["systemInstruction"] = map[string]any{"parts": []map[string]any{{"text": opts.System}}}
	}
	if opts.Seed != nil {
		payload["generationConfig"] = map[string]any{"seed": *opts.Seed}
	}
	body, _, err := postJSON(ctx, g.client, "gemini", endpoint, nil, payload)
	if err != nil {
		// The key travels in the query string; keep it out of error text.
		return "", fmt.Errorf("%s", strings.ReplaceAll(err.Error(), g.apiKey, "***"))
	}
	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response had no candidates")
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"actcli/internal/project"
	"actcli/internal/seminar"
)

const (
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultDeepSeekModel = "deepseek-chat"
	openAIBaseURL        = "https://api.openai.com/v1"
	deepSeekBaseURL      = "https://api.deepseek.com"
)

// ChatCompletions talks to OpenAI-compatible /chat/completions endpoints
// (OpenAI itself and DeepSeek).
type ChatCompletions struct {
	desc      seminar.Descriptor
	vendor    string
	model     string
	url       string
	apiKeyEnv string
	apiKey    string
	headers   map[string]string
	client    *http.Client
}

func newChatCompletions(mc project.ModelConfig, opts Options) (*ChatCompletions, error) {
	vendor := mc.Type
	keyEnv, base, model := "OPENAI_API_KEY", openAIBaseURL, defaultOpenAIModel
	if vendor == "deepseek" {
		keyEnv, base, model = "DEEPSEEK_API_KEY", deepSeekBaseURL, defaultDeepSeekModel
	}
	keyEnv = coalesce(strings.TrimSpace(mc.APIKeyEnv), keyEnv)
	key := strings.TrimSpace(opts.getenv(keyEnv))
	if key == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrMissingCredential, keyEnv)
	}
	model = coalesce(mc.Model, model)
	return &ChatCompletions{
		desc:      describe(mc, model, false),
		vendor:    vendor,
		model:     model,
		url:       chatCompletionsURL(coalesce(mc.BaseURL, base)),
		apiKeyEnv: keyEnv,
		apiKey:    key,
		headers:   mc.Headers,
		client:    opts.httpClient(),
	}, nil
}

func (c *ChatCompletions) Descriptor() seminar.Descriptor { return c.desc }

func (c *ChatCompletions) Generate(ctx context.Context, prompt string, opts seminar.GenerateOptions) (string, error) {
	messages := make([]map[string]any, 0, 2)
	if strings.TrimSpace(opts.System) != "" {
		messages = append(messages, map[string]any{"role": "system", "content": opts.System})
	}
	messages = append(messages, map[string]any{"role": "user", "content": prompt})
	payload := map[string]any{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	}
	if opts.Seed != nil {
		payload["seed"] = *opts.Seed
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	for k, v := range c.headers {
		headers[k] = v
	}
	body, status, err := postJSON(ctx, c.client, c.vendor, c.url, headers, payload)
	if err != nil {
		if c.vendor == "deepseek" && status != 0 {
			if hint := deepSeekHTTPErrorHint(status, c.apiKeyEnv, c.apiKey, string(body)); hint != "" {
				return "", fmt.Errorf("%w | hint: %s", err, hint)
			}
		}
		return "", err
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse %s response: %w", c.vendor, err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return "", fmt.Errorf("%s error: %s", c.vendor, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New(c.vendor + " response had no choices")
	}
	return strings.TrimSpace(messageContentString(out.Choices[0].Message.Content)), nil
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func chatCompletionsURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

func messageContentString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		// Content parts: [{"type":"text","text":"..."}]
		var sb strings.Builder
		for _, part := range x {
			if m, ok := part.(map[string]any); ok {
				if s, ok := m["text"].(string); ok {
					sb.WriteString(s)
				}
			}
		}
		return sb.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func deepSeekHTTPErrorHint(statusCode int, apiKeyEnv, apiKey, responseBody string) string {
	body := strings.ToLower(strings.TrimSpace(responseBody))
	isAuth := statusCode == http.StatusUnauthorized ||
		strings.Contains(body, "authentication") ||
		strings.Contains(body, "invalid api key") ||
		strings.Contains(body, "api key") && strings.Contains(body, "invalid")
	if !isAuth {
		return ""
	}

	key := strings.TrimSpace(apiKey)
	if looksLikePlaceholderAPIKey(key) {
		return fmt.Sprintf("%s appears to be placeholder text; set a real DeepSeek key", apiKeyEnv)
	}
	if !strings.HasPrefix(key, "sk-") {
		return fmt.Sprintf("%s does not look like a DeepSeek key (expected prefix sk-)", apiKeyEnv)
	}
	return fmt.Sprintf("check %s value, key status in DeepSeek dashboard, and base_url", apiKeyEnv)
}

func looksLikePlaceholderAPIKey(value string) bool {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return true
	}
	for _, m := range []string{"YOUR_KEY", "CHANGEME", "REPLACE_ME", "API_KEY", "EXAMPLE", "PLACEHOLDER", "<", ">", "{", "}", "..."} {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}

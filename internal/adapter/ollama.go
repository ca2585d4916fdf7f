package adapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"actcli/internal/project"
	"actcli/internal/seminar"
)

const DefaultOllamaHost = "http://127.0.0.1:11434"

// DefaultPullModels is the set pulled by `models pull --all`.
var DefaultPullModels = []string{
	"codellama:34b",
	"gpt-oss:20b",
	"codellama:13b",
	"llama3:8b",
	"llama3.2:3b",
}

type Ollama struct {
	desc   seminar.Descriptor
	model  string
	host   string
	client *http.Client
}

func newOllama(mc project.ModelConfig, opts Options) (*Ollama, error) {
	model := coalesce(mc.Model, mc.ID)
	return &Ollama{
		desc:   describe(mc, model, true),
		model:  model,
		host:   OllamaHost(coalesce(mc.BaseURL, opts.OllamaHost, opts.getenv("OLLAMA_HOST"))),
		client: opts.httpClient(),
	}, nil
}

// OllamaHost normalises a host override, falling back to the default.
func OllamaHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return DefaultOllamaHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}

func (o *Ollama) Descriptor() seminar.Descriptor { return o.desc }

func (o *Ollama) Generate(ctx context.Context, prompt string, opts seminar.GenerateOptions) (string, error) {
	payload := map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
	}
	if opts.Seed != nil {
		payload["options"] = map[string]any{"seed": *opts.Seed}
	}
	if strings.TrimSpace(opts.System) != "" {
		payload["system"] = opts.System
	}
	body, _, err := postJSON(ctx, o.client, "ollama", o.host+"/api/generate", nil, payload)
	if err != nil {
		return "", err
	}
	var out struct {
		Response string `json:"response"`
		Message  any    `json:"message"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	if out.Response != "" {
		return strings.TrimSpace(out.Response), nil
	}
	switch m := out.Message.(type) {
	case string:
		return strings.TrimSpace(m), nil
	case map[string]any:
		if s, ok := m["content"].(string); ok {
			return strings.TrimSpace(s), nil
		}
	}
	return "", nil
}

// OllamaModel is one entry of GET /api/tags.
type OllamaModel struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
}

// ListOllamaModels returns the models installed on host.
func ListOllamaModels(ctx context.Context, client *http.Client, host string) ([]OllamaModel, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	url := OllamaHost(host) + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create ollama request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama http call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama status %d: %s", resp.StatusCode, trim(string(b), 300))
	}
	var out struct {
		Models []OllamaModel `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse ollama tags: %w", err)
	}
	return out.Models, nil
}

// PullProgress is one streamed event from POST /api/pull.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error"`
}

// PullOllamaModel downloads name on host, reporting each progress event.
func PullOllamaModel(ctx context.Context, client *http.Client, host, name string, progress func(PullProgress)) error {
	if client == nil {
		// Pulls can take minutes; only the caller's context bounds them.
		client = &http.Client{}
	}
	b, err := json.Marshal(map[string]any{"name": name, "stream": true})
	if err != nil {
		return fmt.Errorf("marshal pull payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, OllamaHost(host)+"/api/pull", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama pull: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ollama pull status %d: %s", resp.StatusCode, trim(string(body), 300))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev PullProgress
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			ev = PullProgress{Status: line}
		}
		if ev.Error != "" {
			return fmt.Errorf("pull %s: %s", name, ev.Error)
		}
		if progress != nil {
			progress(ev)
		}
		if ev.Status == "success" {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read pull stream: %w", err)
	}
	return fmt.Errorf("pull %s: stream ended without success", name)
}

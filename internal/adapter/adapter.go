package adapter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"actcli/internal/project"
	"actcli/internal/seminar"
)

// ErrMissingCredential is the cause of a ConstructionError when a cloud
// backend has no API key in the environment.
var ErrMissingCredential = errors.New("missing credential")

// ErrUnknownModel is returned when an id matches neither a declared model nor
// a known naming pattern.
var ErrUnknownModel = errors.New("unknown model")

// ConstructionError reports why a backend could not be built. It is resolved
// before a session starts; no other backend is substituted.
type ConstructionError struct {
	ID  string
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("model %q: %v", e.ID, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// Options carries environment lookups and shared transport settings.
type Options struct {
	OllamaHost string
	// RequestTimeout caps a single HTTP call. Zero leaves the round's per-unit
	// deadline as the only bound.
	RequestTimeout time.Duration
	Getenv         func(string) string
	HTTPClient     *http.Client
}

func (o Options) getenv(key string) string {
	if o.Getenv != nil {
		return o.Getenv(key)
	}
	return os.Getenv(key)
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: o.RequestTimeout}
}

// Resolve maps a model id to its configuration: a declared models[] entry
// when present, otherwise a type inferred from the id.
func Resolve(id string, cfg *project.Config) project.ModelConfig {
	id = strings.TrimSpace(id)
	if mc, ok := cfg.Model(id); ok {
		return mc
	}
	lower := strings.ToLower(id)
	mc := project.ModelConfig{ID: id, Model: id}
	switch {
	case strings.HasPrefix(lower, "echo"):
		mc.Type = "echo"
	case strings.HasPrefix(lower, "llama"), strings.HasPrefix(lower, "mistral"), strings.HasPrefix(lower, "qwen"),
		strings.HasPrefix(lower, "codellama"), strings.HasPrefix(lower, "gemma"), strings.HasPrefix(lower, "phi"),
		strings.Contains(lower, ":"):
		mc.Type = "ollama"
	case strings.HasPrefix(lower, "claude"):
		mc.Type = "anthropic"
		if lower == "claude" {
			mc.Model = defaultAnthropicModel
		}
	case strings.HasPrefix(lower, "gpt"):
		mc.Type = "openai"
		if lower == "gpt" {
			mc.Model = defaultOpenAIModel
		}
	case strings.HasPrefix(lower, "gemini"):
		mc.Type = "gemini"
		if lower == "gemini" {
			mc.Model = defaultGeminiModel
		}
	case strings.HasPrefix(lower, "deepseek"):
		mc.Type = "deepseek"
		if lower == "deepseek" {
			mc.Model = defaultDeepSeekModel
		}
	}
	return mc
}

// Build constructs the adapter described by mc.
func Build(mc project.ModelConfig, opts Options) (seminar.Adapter, error) {
	if strings.TrimSpace(mc.ID) == "" {
		return nil, &ConstructionError{ID: mc.ID, Err: errors.New("id is required")}
	}
	var (
		a   seminar.Adapter
		err error
	)
	switch mc.Type {
	case "echo":
		a = NewEcho(mc.ID, coalesce(mc.Model, "0.1"))
	case "ollama":
		a, err = newOllama(mc, opts)
	case "openai", "deepseek":
		a, err = newChatCompletions(mc, opts)
	case "anthropic":
		a, err = newAnthropic(mc, opts)
	case "gemini":
		a, err = newGemini(mc, opts)
	case "http":
		a, err = newHTTP(mc, opts)
	case "grpc":
		a, err = NewGRPC(mc)
	case "":
		err = ErrUnknownModel
	default:
		err = fmt.Errorf("unsupported model type %q", mc.Type)
	}
	if err != nil {
		return nil, &ConstructionError{ID: mc.ID, Err: err}
	}
	return a, nil
}

// Assembly is the resolved participant list for one session.
type Assembly struct {
	Adapters []seminar.Adapter
	Failures []error
	// Excluded lists ids of remote backends dropped because policy allows
	// only local ones.
	Excluded []string
}

// Assemble builds every requested model once, before a session starts.
// Remote backends are excluded when allowRemote is false.
func Assemble(ids []string, cfg *project.Config, opts Options, allowRemote bool) Assembly {
	var out Assembly
	for _, id := range ids {
		mc := Resolve(id, cfg)
		a, err := Build(mc, opts)
		if err != nil {
			slog.Warn("model unavailable", "model", id, "err", err)
			out.Failures = append(out.Failures, err)
			continue
		}
		if !a.Descriptor().IsLocal && !allowRemote {
			slog.Warn("remote model excluded by policy", "model", id)
			out.Excluded = append(out.Excluded, id)
			closeAdapter(a)
			continue
		}
		out.Adapters = append(out.Adapters, a)
	}
	return out
}

// Close releases adapters holding connections.
func (a Assembly) Close() error {
	var errs []error
	for _, ad := range a.Adapters {
		if err := closeAdapter(ad); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeAdapter(a seminar.Adapter) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func describe(mc project.ModelConfig, model string, local bool) seminar.Descriptor {
	if mc.Local != nil {
		local = *mc.Local
	}
	name := mc.DisplayName
	if name == "" {
		where := "cloud"
		if local {
			where = "local"
		}
		name = fmt.Sprintf("%s(%s)", coalesce(model, mc.ID), where)
	}
	return seminar.Descriptor{
		ID:           mc.ID,
		DisplayName:  name,
		IsLocal:      local,
		ModelVersion: model,
	}
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// trim flattens s to one line and cuts it to at most limit runes.
func trim(s string, limit int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

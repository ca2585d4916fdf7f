package auth

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	MethodAPIKey = "api-key"
	MethodDevice = "device"
	MethodPKCE   = "pkce"

	StatusEnvKey          = "env-key"
	StatusUnauthenticated = "unauthenticated"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrNoAPIKey        = errors.New("api key not set")
	ErrUnknownMethod   = errors.New("unsupported login method")
)

// Provider is a cloud vendor whose credentials actcli tracks.
type Provider struct {
	ID     string
	EnvKey string
}

// Registry resolves provider ids against a credential store.
type Registry struct {
	store     *Store
	providers map[string]Provider
	getenv    func(string) string
}

// NewRegistry registers the vendors actcli has adapters for. getenv may be nil.
func NewRegistry(store *Store, getenv func(string) string) *Registry {
	if getenv == nil {
		getenv = os.Getenv
	}
	r := &Registry{store: store, getenv: getenv, providers: map[string]Provider{}}
	for _, p := range []Provider{
		{ID: "openai", EnvKey: "OPENAI_API_KEY"},
		{ID: "anthropic", EnvKey: "ANTHROPIC_API_KEY"},
		{ID: "google", EnvKey: "GOOGLE_API_KEY"},
		{ID: "deepseek", EnvKey: "DEEPSEEK_API_KEY"},
	} {
		r.providers[p.ID] = p
	}
	return r
}

// IDs returns provider ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) lookup(id string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %s (known: %s)", ErrUnknownProvider, id, strings.Join(r.IDs(), "|"))
	}
	return p, nil
}

// Status reports env-key when the API key is exported, otherwise the stored
// login method, otherwise unauthenticated.
func (r *Registry) Status(id string) (string, error) {
	p, err := r.lookup(id)
	if err != nil {
		return "", err
	}
	if p.EnvKey != "" && r.getenv(p.EnvKey) != "" {
		return StatusEnvKey, nil
	}
	if r.store != nil {
		if c, ok := r.store.Get(p.ID); ok {
			return c.Method, nil
		}
	}
	return StatusUnauthenticated, nil
}

// Login records a login for id and returns the method used. API-key logins
// require the key to be exported; device and pkce flows are recorded as
// pending placeholders.
func (r *Registry) Login(id, method string) (string, error) {
	p, err := r.lookup(id)
	if err != nil {
		return "", err
	}
	if method == "" {
		method = MethodAPIKey
	}
	var c Credentials
	switch method {
	case MethodAPIKey:
		if r.getenv(p.EnvKey) == "" {
			return "", fmt.Errorf("%w: export %s first", ErrNoAPIKey, p.EnvKey)
		}
		c = Credentials{Method: method, Info: map[string]string{"env": p.EnvKey}}
	case MethodDevice, MethodPKCE:
		c = Credentials{Method: method, Info: map[string]string{"note": "oauth flow not completed"}}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	if r.store != nil {
		if err := r.store.Set(p.ID, c); err != nil {
			return "", err
		}
	}
	return method, nil
}

func (r *Registry) Logout(id string) error {
	p, err := r.lookup(id)
	if err != nil {
		return err
	}
	if r.store == nil {
		return nil
	}
	return r.store.Clear(p.ID)
}

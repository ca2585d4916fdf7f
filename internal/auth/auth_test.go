package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStorePersistsPrivately(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg", "credentials.json")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set("openai", Credentials{Method: MethodAPIKey}); err != nil {
		t.Fatalf("set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("credentials not 0600: %v %v", info, err)
	}

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	c, ok := reopened.Get("openai")
	if !ok || c.Method != MethodAPIKey || c.UpdatedAt.IsZero() {
		t.Fatalf("credentials not persisted: %+v %v", c, ok)
	}

	if err := reopened.Clear("openai"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := reopened.Get("openai"); ok {
		t.Fatalf("credentials survived clear")
	}
}

func TestOpenStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenStore(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRegistryStatusLoginLogout(t *testing.T) {
	t.Parallel()

	env := map[string]string{}
	s, _ := OpenStore(filepath.Join(t.TempDir(), "credentials.json"))
	r := NewRegistry(s, func(k string) string { return env[k] })

	if st, _ := r.Status("openai"); st != StatusUnauthenticated {
		t.Fatalf("status = %q", st)
	}
	if _, err := r.Login("openai", ""); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}

	env["OPENAI_API_KEY"] = "sk-test"
	method, err := r.Login("OpenAI", "")
	if err != nil || method != MethodAPIKey {
		t.Fatalf("login: %q %v", method, err)
	}
	if st, _ := r.Status("openai"); st != StatusEnvKey {
		t.Fatalf("status with env = %q", st)
	}

	delete(env, "OPENAI_API_KEY")
	if st, _ := r.Status("openai"); st != MethodAPIKey {
		t.Fatalf("status from store = %q", st)
	}

	if err := r.Logout("openai"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if st, _ := r.Status("openai"); st != StatusUnauthenticated {
		t.Fatalf("status after logout = %q", st)
	}
}

func TestRegistryRejectsUnknowns(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, func(string) string { return "" })
	if _, err := r.Status("acme"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if _, err := r.Login("google", "carrier-pigeon"); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	method, err := r.Login("google", MethodDevice)
	if err != nil || method != MethodDevice {
		t.Fatalf("device login: %q %v", method, err)
	}
	if got := r.IDs(); len(got) != 4 || got[0] != "anthropic" {
		t.Fatalf("ids = %v", got)
	}
}

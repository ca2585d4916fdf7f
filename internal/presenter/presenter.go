// Package presenter serves a small static page that shows the latest seminar
// state and reloads whenever state.json changes.
package presenter

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	DirName       = "presenter"
	StateFile     = "state.json"
	DefaultPort   = 8765
	debounceDelay = 100 * time.Millisecond
)

//go:embed assets/*
var assets embed.FS

// Dir is <outputDir>/presenter.
func Dir(outputDir string) string {
	return filepath.Join(outputDir, DirName)
}

// StatePath is where chat sessions write presenter state.
func StatePath(outputDir string) string {
	return filepath.Join(Dir(outputDir), StateFile)
}

// Prepare writes the static site into <outputDir>/presenter and returns that
// directory. Existing assets are overwritten; state.json is left alone.
func Prepare(outputDir string) (string, error) {
	root := Dir(outputDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create presenter dir: %w", err)
	}
	entries, err := fs.ReadDir(assets, "assets")
	if err != nil {
		return "", fmt.Errorf("read embedded assets: %w", err)
	}
	for _, e := range entries {
		b, err := fs.ReadFile(assets, "assets/"+e.Name())
		if err != nil {
			return "", fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(root, e.Name()), b, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", e.Name(), err)
		}
	}
	return root, nil
}

// Server serves root and pushes a "state" event to /events subscribers each
// time the state file changes.
type Server struct {
	root string
	hub  *Hub
}

func NewServer(root string) *Server {
	return &Server{root: root, hub: NewHub()}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/events", s.hub)
	mux.Handle("/", noCache(http.FileServer(http.Dir(s.root))))
	return mux
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	changes, err := Watch(ctx, s.root, StateFile)
	if err != nil {
		return err
	}
	go func() {
		for range changes {
			s.hub.Broadcast("state")
		}
	}()

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	slog.Info("presenter serving", "root", s.root, "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("presenter serve: %w", err)
	}
	return nil
}

func noCache(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		h.ServeHTTP(w, r)
	})
}

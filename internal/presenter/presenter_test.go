package presenter

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPrepareWritesAssets(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	root, err := Prepare(out)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if root != Dir(out) {
		t.Fatalf("root = %s", root)
	}
	for _, name := range []string{"index.html", "style.css", "app.js"} {
		b, err := os.ReadFile(filepath.Join(root, name))
		if err != nil || len(b) == 0 {
			t.Fatalf("%s missing: %v", name, err)
		}
	}
	js, _ := os.ReadFile(filepath.Join(root, "app.js"))
	if !strings.Contains(string(js), "EventSource('/events')") {
		t.Fatalf("app.js does not subscribe to events")
	}
	if StatePath(out) != filepath.Join(out, "presenter", "state.json") {
		t.Fatalf("state path = %s", StatePath(out))
	}
}

func TestWatchSignalsOnStateWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := Watch(ctx, dir, StateFile)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
		t.Fatalf("unrelated file triggered a signal")
	case <-time.After(3 * debounceDelay):
	}

	tmp := filepath.Join(dir, ".state.tmp")
	if err := os.WriteFile(tmp, []byte(`{"prompt":"p"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, StateFile)); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatalf("no signal after state replaced")
	}

	cancel()
	select {
	case _, ok := <-changes:
		if ok {
			// A trailing signal may be buffered; the close must follow.
			if _, ok := <-changes; ok {
				t.Fatalf("channel not closed after cancel")
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}

func TestHubStreamsBroadcasts(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	rd := bufio.NewReader(resp.Body)
	if line, _ := rd.ReadString('\n'); line != ": connected\n" {
		t.Fatalf("first line = %q", line)
	}

	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	hub.Broadcast("state")

	var got []string
	for len(got) < 3 {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.TrimSpace(line) == "" && len(got) == 0 {
			continue
		}
		got = append(got, line)
	}
	if got[0] != "event: state\n" || got[1] != "data: {}\n" {
		t.Fatalf("unexpected event %q", got)
	}
}

func TestServerPushesStateChanges(t *testing.T) {
	t.Parallel()

	root, err := Prepare(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(root)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	}()

	base := "http://" + lis.Addr().String()
	resp, err := http.Get(base + "/index.html")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "ActCLI Presenter") || resp.Header.Get("Cache-Control") != "no-store" {
		t.Fatalf("unexpected index response")
	}

	events, err := http.Get(base + "/events")
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	defer events.Body.Close()
	rd := bufio.NewReader(events.Body)
	_, _ = rd.ReadString('\n')

	deadline := time.Now().Add(5 * time.Second)
	for s.hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := os.WriteFile(filepath.Join(root, StateFile), []byte(`{"prompt":"p"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	found := make(chan struct{})
	go func() {
		for {
			line, err := rd.ReadString('\n')
			if err != nil {
				return
			}
			if line == "event: state\n" {
				close(found)
				return
			}
		}
	}()
	select {
	case <-found:
	case <-time.After(5 * time.Second):
		t.Fatalf("no state event after write")
	}
}

package adapter

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"actcli/internal/project"
	"actcli/internal/seminar"
)

type failingAdapter struct{}

func (failingAdapter) Descriptor() seminar.Descriptor {
	return seminar.Descriptor{ID: "broken", DisplayName: "broken", IsLocal: true}
}

func (failingAdapter) Generate(context.Context, string, seminar.GenerateOptions) (string, error) {
	return "", errors.New("backend exploded")
}

func startBackend(t *testing.T, a seminar.Adapter) *GRPC {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeBackend(ctx, lis, a) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})

	mc := project.ModelConfig{ID: "remote", Type: "grpc", Model: "remote-echo", BaseURL: "passthrough:///bufnet"}
	client, err := NewGRPC(mc, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPCRoundTrip(t *testing.T) {
	t.Parallel()

	client := startBackend(t, NewEcho("echo", "0.1"))
	if d := client.Descriptor(); d.IsLocal || d.DisplayName != "remote-echo(cloud)" {
		t.Fatalf("unexpected descriptor %+v", d)
	}

	text, err := client.Generate(context.Background(), "hello", seminar.GenerateOptions{RoundIndex: 1, Seed: seed(3)})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Answer (simulated) to: hello" {
		t.Fatalf("text = %q", text)
	}

	text, err = client.Generate(context.Background(), "critique", seminar.GenerateOptions{RoundIndex: 2, PeerSnippets: "a: b"})
	if err != nil {
		t.Fatalf("generate round 2: %v", err)
	}
	if !strings.Contains(text, `Considering: "a: b"`) {
		t.Fatalf("peer snippets lost over grpc: %q", text)
	}
}

func TestGRPCBackendErrorsMapToStatus(t *testing.T) {
	t.Parallel()

	client := startBackend(t, failingAdapter{})
	_, err := client.Generate(context.Background(), "hello", seminar.GenerateOptions{RoundIndex: 1})
	if status.Code(errors.Unwrap(err)) != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v", err)
	}

	_, err = client.Generate(context.Background(), "  ", seminar.GenerateOptions{RoundIndex: 1})
	if status.Code(errors.Unwrap(err)) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestNewGRPCRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := NewGRPC(project.ModelConfig{ID: "g", Type: "grpc"}); err == nil {
		t.Fatalf("expected error for empty base_url")
	}
}

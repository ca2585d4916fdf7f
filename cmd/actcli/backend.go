package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"actcli/internal/adapter"
	"actcli/internal/trust"
)

const defaultBackendAddr = "127.0.0.1:7070"

func cmdBackend(args []string) error {
	if len(args) == 0 || args[0] != "serve" {
		return fmt.Errorf("usage: actcli backend serve [--addr HOST:PORT] <model-id>")
	}
	fs := flag.NewFlagSet("backend serve", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	addr := fs.String("addr", defaultBackendAddr, "listen address")
	ollamaHost := fs.String("ollama-host", "", "Ollama host override")
	rest, err := parseFlagsLoose(fs, args[1:])
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: actcli backend serve [--addr HOST:PORT] <model-id>")
	}
	ws, err := loadWorkspace(*workspaceDir)
	if err != nil {
		return err
	}
	a, err := adapter.Build(adapter.Resolve(rest[0], ws.cfg), adapter.Options{
		OllamaHost: coalesce(*ollamaHost, ws.cfg.Defaults.OllamaHost),
	})
	if err != nil {
		return err
	}
	if c, ok := a.(io.Closer); ok {
		defer c.Close()
	}
	if !a.Descriptor().IsLocal {
		store, err := trust.DefaultStore()
		if err != nil {
			return err
		}
		rec, err := store.Get(ws.root)
		if err != nil {
			return err
		}
		if !trust.Merge(rec).AllowRemote(ws.cfg) {
			return fmt.Errorf("%s is a cloud model and this folder does not allow cloud sharing (actcli trust allow-here --cloud-share)", rest[0])
		}
	}
	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := a.Descriptor()
	fmt.Fprintf(stdout, "Serving %s (%s) on %s as %s\n", d.DisplayName, d.ModelVersion, lis.Addr(), adapter.BackendServiceName)
	return adapter.ServeBackend(ctx, lis, a)
}

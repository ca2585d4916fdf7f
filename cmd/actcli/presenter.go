package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"actcli/internal/presenter"
)

func cmdPresenter(args []string) error {
	fs := flag.NewFlagSet("presenter", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	port := fs.Int("port", presenter.DefaultPort, "port to listen on (127.0.0.1 only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ws, err := loadWorkspace(*workspaceDir)
	if err != nil {
		return err
	}
	root, err := presenter.Prepare(ws.outputDir())
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", *port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "Presenter ready at http://%s/ (serving %s)\n", lis.Addr(), root)
	fmt.Fprintln(stdout, "Chat sessions in this workspace update the page live. Ctrl+C to stop.")
	return presenter.NewServer(root).Serve(ctx, lis)
}

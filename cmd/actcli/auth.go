package main

import (
	"flag"
	"fmt"
	"log/slog"

	"actcli/internal/auth"
)

// openAuthStore returns the user's credential store, or nil when it cannot be
// read; status then falls back to environment keys.
func openAuthStore() *auth.Store {
	store, err := auth.DefaultStore()
	if err != nil {
		slog.Warn("credential store unavailable", "err", err)
		return nil
	}
	return store
}

func cmdAuth(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: actcli auth status|login|logout")
	}
	switch args[0] {
	case "status":
		return cmdAuthStatus()
	case "login":
		return cmdAuthLogin(args[1:])
	case "logout":
		return cmdAuthLogout(args[1:])
	default:
		return fmt.Errorf("unknown auth subcommand %q", args[0])
	}
}

func cmdAuthStatus() error {
	registry := auth.NewRegistry(openAuthStore(), nil)
	rows := make([][]string, 0, len(registry.IDs()))
	for _, id := range registry.IDs() {
		status, err := registry.Status(id)
		if err != nil {
			return err
		}
		rows = append(rows, []string{id, status})
	}
	printPanel(stdout, "Auth Status", kvTable([]string{"Provider", "Status"}, rows))
	return nil
}

func cmdAuthLogin(args []string) error {
	fs := flag.NewFlagSet("auth login", flag.ContinueOnError)
	method := fs.String("method", auth.MethodAPIKey, "api-key|device|pkce")
	rest, err := parseFlagsLoose(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: actcli auth login [--method api-key|device|pkce] <provider>")
	}
	store, err := auth.DefaultStore()
	if err != nil {
		return err
	}
	used, err := auth.NewRegistry(store, nil).Login(rest[0], *method)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Logged in to %s via %s (%s)\n", rest[0], used, store.Path())
	return nil
}

func cmdAuthLogout(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: actcli auth logout <provider>")
	}
	store, err := auth.DefaultStore()
	if err != nil {
		return err
	}
	if err := auth.NewRegistry(store, nil).Logout(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Logged out of %s\n", args[0])
	return nil
}

package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"actcli/internal/project"
	"actcli/internal/trust"
)

func cmdTrust(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: actcli trust status|allow-here|allow-once|revoke")
	}
	sub := args[0]
	fs := flag.NewFlagSet("trust "+sub, flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	cloudShare := fs.Bool("cloud-share", false, "allow prompts to be sent to cloud models")
	read := fs.String("read", "", "extra read globs, comma separated (e.g. ./docs/**)")
	write := fs.String("write", "", "extra write globs, comma separated (e.g. ./reports/**)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	root, err := filepath.Abs(*workspaceDir)
	if err != nil {
		return err
	}
	store, err := trust.DefaultStore()
	if err != nil {
		return err
	}

	switch sub {
	case "status":
		rec, err := store.Get(root)
		if err != nil {
			return err
		}
		printTrustStatus(root, rec)
		return nil
	case "allow-here", "allow-once":
		policy := trust.DefaultPolicy()
		for _, g := range project.SplitList(*read) {
			policy.AllowRead(g)
		}
		for _, g := range project.SplitList(*write) {
			policy.AllowWrite(g)
		}
		scope := trust.ScopePersist
		if sub == "allow-once" {
			scope = trust.ScopeOnce
		}
		rec := trust.Record{Path: root, Scope: scope, Read: policy.Read, Write: policy.Write, CloudShare: *cloudShare}
		path, err := store.Set(root, rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Trusted %s (%s, cloud_share=%t)\n", root, scope, *cloudShare)
		fmt.Fprintf(stdout, "Record: %s\n", path)
		return nil
	case "revoke":
		if err := store.Revoke(root); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Revoked trust for %s\n", root)
		return nil
	default:
		return fmt.Errorf("unknown trust subcommand %q", sub)
	}
}

func printTrustStatus(root string, rec *trust.Record) {
	policy := trust.Merge(rec)
	scope := "untrusted"
	if rec != nil {
		scope = rec.Scope
	}
	rows := [][]string{
		{"Folder", root},
		{"Scope", scope},
		{"Read", strings.Join(policy.Read, ", ")},
		{"Write", strings.Join(policy.Write, ", ")},
		{"Cloud share", strconv.FormatBool(policy.CloudShare)},
	}
	printPanel(stdout, "Trust", kvTable([]string{"Field", "Value"}, rows))
}

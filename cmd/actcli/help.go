package main

import (
	"fmt"
	"strings"

	"actcli/internal/commanddoc"
)

func cmdHelp(args []string) error {
	query := strings.Join(args, " ")
	doc, ok := commanddoc.Lookup(query)
	if !ok {
		matches := commanddoc.Search(query, 5)
		if len(matches) == 0 {
			return fmt.Errorf("unknown command %q", commanddoc.NormalizePath(query))
		}
		fmt.Fprintf(stdout, "No exact match for %q. Closest commands:\n", commanddoc.NormalizePath(query))
		for _, d := range matches {
			fmt.Fprintf(stdout, "  %-18s %s\n", d.Path, d.Summary)
		}
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", doc.Summary)
	section := func(name string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", name)
		for _, it := range items {
			fmt.Fprintf(&b, "  %s\n", it)
		}
	}
	section("Usage", doc.Usage)
	section("Examples", doc.Examples)
	section("Notes", doc.Notes)
	printPanel(stdout, "actcli "+doc.Path+" ["+doc.Category+"]", strings.TrimRight(b.String(), "\n"))
	return nil
}

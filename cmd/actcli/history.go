package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"actcli/internal/history"
	"actcli/internal/transcript"
)

const (
	historyIDWidth     = 8
	historyPromptWidth = 48
	markdownWrap       = 100
)

func cmdHistory(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: actcli history list|show|rm")
	}
	sub := args[0]
	fs := flag.NewFlagSet("history "+sub, flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".", "workspace path")
	limit := fs.Int("limit", 20, "maximum sessions to list (0 = all)")
	raw := fs.Bool("raw", false, "print markdown without terminal styling")
	rest, err := parseFlagsLoose(fs, args[1:])
	if err != nil {
		return err
	}
	ws, err := loadWorkspace(*workspaceDir)
	if err != nil {
		return err
	}
	path := history.DefaultPath(ws.outputDir())
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && sub == "list" {
			fmt.Fprintln(stdout, "No sessions recorded yet.")
			return nil
		}
		return fmt.Errorf("history database %s: %w", path, err)
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	switch sub {
	case "list":
		return historyList(ctx, store, *limit)
	case "show", "rm":
		if len(rest) != 1 {
			return fmt.Errorf("usage: actcli history %s <id|prefix>", sub)
		}
		if sub == "rm" {
			if err := store.Delete(ctx, rest[0]); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Deleted session %s\n", rest[0])
			return nil
		}
		return historyShow(ctx, store, rest[0], *raw || !isInteractiveTerminal())
	default:
		return fmt.Errorf("unknown history subcommand %q", sub)
	}
}

func historyList(ctx context.Context, store *history.Store, limit int) error {
	sessions, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(stdout, "No sessions recorded yet.")
		return nil
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		score := "-"
		if s.Disagreement != nil {
			score = fmt.Sprintf("%.2f", *s.Disagreement)
		}
		id := s.ID
		if len(id) > historyIDWidth {
			id = id[:historyIDWidth]
		}
		rows = append(rows, []string{
			id,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", s.Rounds),
			fmt.Sprintf("%d/%d", s.OKCount, s.Participants),
			score,
			runewidth.Truncate(oneLine(s.Prompt), historyPromptWidth, "…"),
		})
	}
	printPanel(stdout, "History", kvTable([]string{"ID", "Started", "Rounds", "OK", "Disagreement", "Prompt"}, rows))
	return nil
}

func historyShow(ctx context.Context, store *history.Store, id string, raw bool) error {
	sess, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("session %s | %s", sess.ID, sess.Report.StartedAt.Local().Format("2006-01-02 15:04:05"))
	md := transcript.Markdown(header, sess.Report)
	if raw {
		fmt.Fprint(stdout, md)
		return nil
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(markdownWrap))
	if err != nil {
		fmt.Fprint(stdout, md)
		return nil
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render transcript: %w", err)
	}
	fmt.Fprint(stdout, out)
	return nil
}

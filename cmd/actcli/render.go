package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"actcli/internal/seminar"
)

const (
	nameCellWidth = 24
	textCellWidth = 72
	textCellLimit = 1200
)

type theme struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Name    lipgloss.Style
	Cell    lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Panel   lipgloss.Style
	Synth   lipgloss.Style
	Warning lipgloss.Style
	OK      lipgloss.Style
}

func newTheme() theme {
	cyan := lipgloss.Color("39")
	magenta := lipgloss.Color("170")
	return theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(cyan),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Name:    lipgloss.NewStyle().Foreground(cyan).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Padding(0, 1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		Panel:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cyan).Padding(0, 1),
		Synth:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(magenta).Padding(0, 1),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		OK:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

var styles = newTheme()

// roundTitle names a round the way transcripts do.
func roundTitle(index, total int) string {
	switch {
	case total == 1:
		return "Responses"
	case index == 1:
		return "Round 1 - direct answers"
	default:
		return fmt.Sprintf("Round %d - critique & next checks", index)
	}
}

// renderRound draws one round as a Model / Latency / Text table.
func renderRound(title string, results []seminar.TurnResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			runewidth.Truncate(nameWithPlace(r.Descriptor), nameCellWidth, "…"),
			fmt.Sprintf("%d ms", r.LatencyMS()),
			resultCell(r),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Muted).
		Headers("Model", "Latency", "Text/Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			switch col {
			case 0:
				return styles.Name
			case 2:
				return styles.Cell.Width(textCellWidth + 2)
			default:
				return styles.Cell
			}
		})
	return panel(title, t.String(), styles.Panel)
}

func resultCell(r seminar.TurnResult) string {
	if !r.OK() {
		msg := "no output"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return styles.Error.Render(runewidth.Truncate(oneLine(msg), textCellWidth*2, "…"))
	}
	return runewidth.Truncate(strings.TrimSpace(r.Text), textCellLimit, "…")
}

func nameWithPlace(d seminar.Descriptor) string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ID
}

// renderSynthesis draws the agreement summary and disagreement score.
func renderSynthesis(s seminar.SynthesisOutcome) string {
	body := fmt.Sprintf("%s\nDisagreement score: %.2f", s.AgreementSummary, s.DisagreementScore)
	return panel("Synthesis", body, styles.Synth)
}

// renderReport draws every round of rep and its synthesis.
func renderReport(rep seminar.SessionReport) string {
	parts := make([]string, 0, len(rep.Rounds)+1)
	for i, round := range rep.Rounds {
		parts = append(parts, renderRound(roundTitle(i+1, len(rep.Rounds)), round))
	}
	if rep.Synthesis != nil {
		parts = append(parts, renderSynthesis(*rep.Synthesis))
	}
	return strings.Join(parts, "\n")
}

func panel(title, body string, style lipgloss.Style) string {
	return styles.Title.Render(title) + "\n" + style.Render(body)
}

// kvTable is the plain table used by doctor, status and listing commands.
func kvTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			if col == 0 {
				return styles.Name
			}
			return styles.Cell
		})
	return t.String()
}

func printPanel(w io.Writer, title, body string) {
	fmt.Fprintln(w, panel(title, body, styles.Panel))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

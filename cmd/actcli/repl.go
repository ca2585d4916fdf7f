package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"actcli/internal/seminar"
)

// stdin feeds the line-mode REPL; tests swap it.
var stdin io.Reader = os.Stdin

var replHelp = []string{
	"/help                Show this help",
	"/models              List attending models",
	"/attending_models    Alias for /models",
	"/models add <id>     Add a model (e.g., codellama:34b)",
	"/models remove <id>  Remove a model",
	"/rounds <n>          Set rounds (1-3)",
	"/ollama <url>        Set Ollama host (e.g., http://127.0.0.1:11435)",
	"/quit | /exit        Leave REPL",
}

// applyCommand handles one slash command against s and returns the text to
// show. quit is set for /quit and /exit.
func applyCommand(s *chatSession, line string) (reply string, quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]
	switch cmd {
	case "/quit", "/exit":
		return "", true
	case "/help":
		return panel("Commands", strings.Join(replHelp, "\n"), styles.Panel), false
	case "/attending_models":
		return modelsPanel(s.models), false
	case "/models":
		if len(args) == 0 {
			return modelsPanel(s.models), false
		}
		if len(args) < 2 {
			return "Usage: /models add <id> | /models remove <id>", false
		}
		id := args[1]
		switch strings.ToLower(args[0]) {
		case "add":
			if !slices.Contains(s.models, id) {
				s.models = append(slices.Clone(s.models), id)
			}
		case "remove":
			s.models = slices.DeleteFunc(slices.Clone(s.models), func(m string) bool { return m == id })
		default:
			return "Usage: /models add <id> | /models remove <id>", false
		}
		return modelsPanel(s.models), false
	case "/rounds":
		if len(args) == 0 {
			return "Usage: /rounds <n>", false
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "Usage: /rounds <n>", false
		}
		if n < seminar.MinRounds || n > seminar.MaxRounds {
			return fmt.Sprintf("Rounds must be %d-%d", seminar.MinRounds, seminar.MaxRounds), false
		}
		s.rounds = n
		return fmt.Sprintf("Rounds set to %d", n), false
	case "/ollama":
		if len(args) == 0 {
			return "Usage: /ollama <url>", false
		}
		s.ollamaHost = args[0]
		return "Ollama host set to " + args[0], false
	}
	return "Unknown command. Type /help.", false
}

func modelsPanel(models []string) string {
	body := strings.Join(models, "\n")
	if body == "" {
		body = "(none)"
	}
	return panel("Attending Models", body, styles.Panel)
}

// roundtableText renders a finished run, or its failure, for the REPL.
func roundtableText(out outcome, err error) string {
	var b strings.Builder
	for _, f := range out.failures {
		b.WriteString(styles.Warning.Render("skipped: "+f.Error()) + "\n")
	}
	if len(out.excluded) > 0 {
		b.WriteString(styles.Warning.Render("excluded cloud models: "+strings.Join(out.excluded, ", ")) + "\n")
	}
	if err != nil {
		b.WriteString(styles.Error.Render("error: " + err.Error()))
		return b.String()
	}
	b.WriteString(renderReport(out.report))
	return b.String()
}

func runREPL(ctx context.Context, s *chatSession) error {
	if !isInteractiveTerminal() {
		return runLineREPL(ctx, s, stdin)
	}
	p := tea.NewProgram(newReplModel(ctx, s), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// runLineREPL is the REPL for pipes and dumb terminals.
func runLineREPL(ctx context.Context, s *chatSession, in io.Reader) error {
	fmt.Fprintln(stdout, panel("Chat REPL", "Type a prompt to run the roundtable, or /help for commands.", styles.Panel))
	sc := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(stdout, "actcli> ")
		if !sc.Scan() {
			fmt.Fprintln(stdout, "\nExiting.")
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			reply, quit := applyCommand(s, line)
			if quit {
				return nil
			}
			fmt.Fprintln(stdout, reply)
			continue
		}
		out, err := s.run(ctx, line)
		fmt.Fprintln(stdout, roundtableText(out, err))
	}
}

type roundtableDoneMsg struct {
	out outcome
	err error
}

type replModel struct {
	ctx     context.Context
	session *chatSession

	input    textinput.Model
	spinner  spinner.Model
	log      viewport.Model
	lines    []string
	running  bool
	ready    bool
	quitting bool
}

func newReplModel(ctx context.Context, s *chatSession) replModel {
	in := textinput.New()
	in.Prompt = "actcli> "
	in.Placeholder = "ask the roundtable, or /help"
	in.CharLimit = 4000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points

	return replModel{
		ctx:     ctx,
		session: s,
		input:   in,
		spinner: sp,
		log:     viewport.New(0, 0),
		lines:   []string{panel("Chat REPL", "Type a prompt to run the roundtable, or /help for commands.", styles.Panel)},
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m replModel) runRoundtable(prompt string) tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		out, err := s.run(ctx, prompt)
		return roundtableDoneMsg{out: out, err: err}
	}
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.log.Width = msg.Width
		m.log.Height = max(msg.Height-3, 1)
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 10)
		m.ready = true
		m.refresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case roundtableDoneMsg:
		m.running = false
		m.append(roundtableText(msg.out, msg.err))
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			m.quitting = true
			return m, tea.Quit
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			return m, cmd
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" || m.running {
				return m, nil
			}
			m.append(styles.Muted.Render("actcli> " + line))
			if strings.HasPrefix(line, "/") {
				reply, quit := applyCommand(m.session, line)
				if quit {
					m.quitting = true
					return m, tea.Quit
				}
				m.append(reply)
				return m, nil
			}
			m.running = true
			return m, m.runRoundtable(line)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *replModel) append(text string) {
	m.lines = append(m.lines, text)
	m.refresh()
}

func (m *replModel) refresh() {
	m.log.SetContent(strings.Join(m.lines, "\n"))
	m.log.GotoBottom()
}

func (m replModel) View() string {
	if m.quitting {
		return "Exiting.\n"
	}
	if !m.ready {
		return "starting..."
	}
	status := ""
	if m.running {
		status = m.spinner.View() + " roundtable in progress (" + strings.Join(m.session.models, ", ") + ")"
	}
	return m.log.View() + "\n" + status + "\n" + m.input.View()
}

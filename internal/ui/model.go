package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"groundctl/internal/view"
)

type mode int

const (
	modeMenu mode = iota
	modeRunning
	modeResult
)

// footerLines is the space kept below the viewport for the prompt and help.
const footerLines = 2

// doneMsg reports that a dispatched action returned.
type doneMsg struct {
	action Action
	quit   bool
	err    error
}

// Model is the bubbletea model of the interactive menu.
type Model struct {
	ctx        context.Context
	dispatcher *Dispatcher
	format     view.Formatter
	keys       keyMap
	help       help.Model
	vp         viewport.Model
	now        func() time.Time

	mode     mode
	cancel   context.CancelFunc
	content  string
	err      string
	quitting bool
}

// NewModel creates the menu model. Actions run under ctx.
func NewModel(ctx context.Context, d *Dispatcher, f view.Formatter) Model {
	return Model{
		ctx:        ctx,
		dispatcher: d,
		format:     f,
		keys:       newKeyMap(),
		help:       help.New(),
		vp:         viewport.New(80, 20),
		now:        time.Now,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.format = m.format.WithWidth(msg.Width)
		m.help.Width = msg.Width
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-footerLines, 1)
		m.vp.SetContent(m.content)
	case frameMsg:
		m.setContent(m.format.Frame(msg.Frame))
		m.vp.GotoTop()
	case noticeMsg:
		m.setContent(m.content + "\n\n" + m.format.Success(msg.text))
		m.vp.GotoBottom()
	case doneMsg:
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		if msg.quit {
			m.quitting = true
			return m, tea.Quit
		}
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.setContent(m.content + "\n\n" + m.format.Alert(msg.err.Error()))
		}
		m.mode = modeResult
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeMenu:
		if key.Matches(msg, m.keys.Quit) {
			return m.start(ActionQuit)
		}
		a, err := ParseAction(msg.String())
		if err != nil {
			m.err = "Invalid option"
			return m, nil
		}
		return m.start(a)
	case modeRunning:
		if key.Matches(msg, m.keys.Stop) {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
	case modeResult:
		if key.Matches(msg, m.keys.Continue) {
			m.mode = modeMenu
			m.setContent("")
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// start dispatches a in the background; frames arrive through ProgramDisplay.
func (m Model) start(a Action) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.mode = modeRunning
	m.err = ""
	switch a {
	case ActionLive:
		m.setContent(m.format.Success(fmt.Sprintf("Live refresh for %s (q to stop)", m.dispatcher.budget)))
	case ActionQuit:
	default:
		m.setContent(m.format.Header() + "\nLoading...")
	}
	d := m.dispatcher
	return m, func() tea.Msg {
		quit, err := d.Dispatch(ctx, a)
		return doneMsg{action: a, quit: quit, err: err}
	}
}

func (m *Model) setContent(s string) {
	m.content = s
	m.vp.SetContent(s)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var body, prompt string
	switch m.mode {
	case modeMenu:
		body = m.menuView()
	case modeResult:
		body = m.vp.View()
		prompt = "Press Enter to continue..."
	default:
		body = m.vp.View()
	}
	return body + "\n" + prompt + "\n" + m.help.View(m.keys.forMode(m.mode))
}

func (m Model) menuView() string {
	var b strings.Builder
	b.WriteString(m.format.Header())
	b.WriteString("\nUpdated: " + m.now().Format("15:04:05") + "\n\n")
	b.WriteString("OPTIONS:\n")
	for _, a := range Actions() {
		label := a.Label()
		if a == ActionLive {
			label = m.dispatcher.LiveLabel()
		}
		fmt.Fprintf(&b, "  %s - %s\n", a.Key(), label)
	}
	if m.err != "" {
		b.WriteString("\n" + m.format.Alert(m.err) + "\n")
	}
	return b.String()
}

// Run starts the menu and blocks until the user quits or ctx ends.
func Run(ctx context.Context, d *Dispatcher, disp *ProgramDisplay, f view.Formatter) error {
	p := tea.NewProgram(NewModel(ctx, d, f), tea.WithAltScreen(), tea.WithContext(ctx))
	disp.Attach(p)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"groundctl/internal/view"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// frameMsg carries a rendered cycle to the model.
type frameMsg struct{ view.Frame }

// noticeMsg carries a closing confirmation.
type noticeMsg struct{ text string }

// ProgramDisplay forwards poller output to a running bubbletea program.
type ProgramDisplay struct {
	mu      sync.Mutex
	program teaProgram
}

// NewProgramDisplay creates a display with no program attached. Output sent
// before Attach is dropped.
func NewProgramDisplay() *ProgramDisplay {
	return &ProgramDisplay{}
}

// Attach sets the program that receives frames.
func (d *ProgramDisplay) Attach(p teaProgram) {
	d.mu.Lock()
	d.program = p
	d.mu.Unlock()
}

func (d *ProgramDisplay) send(msg tea.Msg) {
	d.mu.Lock()
	p := d.program
	d.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Frame implements poller.Display.
func (d *ProgramDisplay) Frame(fr view.Frame) error {
	d.send(frameMsg{fr})
	return nil
}

// Notice implements poller.Display.
func (d *ProgramDisplay) Notice(msg string) error {
	d.send(noticeMsg{text: msg})
	return nil
}

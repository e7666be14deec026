package poller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"groundctl/internal/view"
)

const clearScreen = "\x1b[H\x1b[2J"

// StdoutDisplay prints frames to a writer, clearing the screen between
// frames when the writer is a terminal.
type StdoutDisplay struct {
	out   io.Writer
	form  view.Formatter
	clear bool
}

// NewStdoutDisplay creates a display writing to w with f. Terminal width is
// used for wrapping when w is a TTY.
func NewStdoutDisplay(w io.Writer, f view.Formatter) *StdoutDisplay {
	d := &StdoutDisplay{out: w, form: f}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		d.clear = true
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			d.form = f.WithWidth(width)
		}
	}
	return d
}

// Frame implements Display.
func (d *StdoutDisplay) Frame(fr view.Frame) error {
	if d.clear {
		if _, err := io.WriteString(d.out, clearScreen); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(d.out, d.form.Frame(fr))
	return err
}

// Notice implements Display.
func (d *StdoutDisplay) Notice(msg string) error {
	_, err := fmt.Fprintf(d.out, "\n%s\n", d.form.Success(msg))
	return err
}

// JSONDisplay prints each frame as one JSON line.
type JSONDisplay struct {
	enc *json.Encoder
}

// NewJSONDisplay creates a JSONDisplay writing to w.
func NewJSONDisplay(w io.Writer) *JSONDisplay {
	return &JSONDisplay{enc: json.NewEncoder(w)}
}

// Frame implements Display.
func (d *JSONDisplay) Frame(fr view.Frame) error {
	return d.enc.Encode(fr)
}

// Notice implements Display.
func (d *JSONDisplay) Notice(msg string) error {
	return d.enc.Encode(struct {
		Notice string `json:"notice"`
	}{msg})
}

// LogDisplay records a summary line for every frame.
type LogDisplay struct {
	logger *slog.Logger
}

// NewLogDisplay creates a LogDisplay.
func NewLogDisplay(l *slog.Logger) *LogDisplay {
	return &LogDisplay{logger: l.With("component", "display")}
}

// Frame implements Display.
func (d *LogDisplay) Frame(fr view.Frame) error {
	args := []any{"cycle", fr.Cycle, "available", fr.Available}
	for _, r := range fr.Results {
		args = append(args, r.Category.String(), r.State.String())
		if r.Skipped > 0 {
			args = append(args, r.Category.String()+"_skipped", r.Skipped)
		}
	}
	d.logger.Info("frame", args...)
	return nil
}

// Notice implements Display.
func (d *LogDisplay) Notice(msg string) error {
	d.logger.Info(msg)
	return nil
}

// MultiDisplay fans frames out to several displays.
type MultiDisplay struct {
	displays []Display
}

// NewMultiDisplay creates a MultiDisplay.
func NewMultiDisplay(ds ...Display) *MultiDisplay {
	return &MultiDisplay{displays: ds}
}

// Frame sends fr to every display and joins their errors.
func (m *MultiDisplay) Frame(fr view.Frame) error {
	var errs []error
	for _, d := range m.displays {
		if err := d.Frame(fr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notice sends msg to every display.
func (m *MultiDisplay) Notice(msg string) error {
	var errs []error
	for _, d := range m.displays {
		if err := d.Notice(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

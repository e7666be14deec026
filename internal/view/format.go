package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
)

const (
	maxCellWidth = 28
	bannerWidth  = 66
	clockLayout  = "15:04:05"
)

// Styles holds the lipgloss styles a Formatter draws with. A Styles value is
// bound to one renderer and never mutated after construction.
type Styles struct {
	Banner lipgloss.Style
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
	Label  lipgloss.Style
	Muted  lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Alert  lipgloss.Style
	Idle   lipgloss.Style
	Info   lipgloss.Style
}

// NewStyles builds styles for the terminal behind w. With color false every
// style renders as plain text.
func NewStyles(w io.Writer, color bool) Styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return StylesFor(r)
}

// PlainStyles returns styles that never emit escape sequences.
func PlainStyles() Styles {
	return NewStyles(io.Discard, false)
}

// StylesFor builds styles bound to r.
func StylesFor(r *lipgloss.Renderer) Styles {
	return Styles{
		Banner: r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).
			Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("6")).
			Width(bannerWidth).Align(lipgloss.Center),
		Title:  r.NewStyle().Bold(true),
		Header: r.NewStyle().Bold(true).Padding(0, 1),
		Cell:   r.NewStyle().Padding(0, 1),
		Border: r.NewStyle().Foreground(lipgloss.Color("8")),
		Label:  r.NewStyle().Foreground(lipgloss.Color("8")),
		Muted:  r.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		Good:   r.NewStyle().Foreground(lipgloss.Color("10")),
		Warn:   r.NewStyle().Foreground(lipgloss.Color("11")),
		Alert:  r.NewStyle().Foreground(lipgloss.Color("9")),
		Idle:   r.NewStyle().Foreground(lipgloss.Color("12")),
		Info:   r.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

func (s Styles) tone(t Tone) (lipgloss.Style, bool) {
	switch t {
	case ToneGood:
		return s.Good, true
	case ToneWarn:
		return s.Warn, true
	case ToneAlert:
		return s.Alert, true
	case ToneIdle:
		return s.Idle, true
	case ToneInfo:
		return s.Info, true
	}
	return lipgloss.Style{}, false
}

// Formatter turns results into terminal text. It holds no mutable state.
type Formatter struct {
	styles Styles
	width  int
}

// NewFormatter returns a formatter drawing with s. A width of 0 disables
// wrapping of notices.
func NewFormatter(s Styles, width int) Formatter {
	return Formatter{styles: s, width: width}
}

// WithWidth returns a copy of f wrapping at width.
func (f Formatter) WithWidth(width int) Formatter {
	f.width = width
	return f
}

// Header renders the application banner.
func (f Formatter) Header() string {
	return f.styles.Banner.Render("GROUND CONTROL - Mothership\nFleet monitoring system")
}

// Frame renders a complete refresh cycle.
func (f Formatter) Frame(fr Frame) string {
	var b strings.Builder
	b.WriteString(f.Header())
	b.WriteString("\n")
	line := "Updated: " + fr.Time.Format(clockLayout)
	if fr.Progress != "" {
		line = fr.Progress + " | " + fr.Time.Format(clockLayout)
	}
	b.WriteString(f.styles.Label.Render(line))
	b.WriteString("\n\n")
	for _, r := range fr.Results {
		b.WriteString(f.Result(r))
		b.WriteString("\n\n")
	}
	if !fr.Available {
		b.WriteString(f.Alert(AwaitingBanner))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Result renders one category view.
func (f Formatter) Result(r Result) string {
	if !r.OK() {
		out := f.styles.Warn.Render(f.wrap("! " + r.Notice))
		if r.Skipped > 0 {
			out += "\n" + f.footnote(r.Skipped)
		}
		return out
	}

	var body string
	if r.Headers == nil {
		body = f.pairs(r.Rows)
	} else {
		body = f.table(r)
	}
	out := f.styles.Title.Render(r.Title) + "\n" + body
	if r.Skipped > 0 {
		out += "\n" + f.footnote(r.Skipped)
	}
	return out
}

// Success renders a confirmation line.
func (f Formatter) Success(msg string) string {
	return f.styles.Good.Render(f.wrap(msg))
}

// Alert renders a warning line.
func (f Formatter) Alert(msg string) string {
	return f.styles.Alert.Render(f.wrap(msg))
}

func (f Formatter) table(r Result) string {
	rows := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = f.cell(c)
		}
		rows[i] = cells
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.styles.Border).
		Headers(r.Headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.styles.Header
			}
			return f.styles.Cell
		})
	return t.String()
}

func (f Formatter) pairs(rows [][]Cell) string {
	labelWidth := 0
	for _, row := range rows {
		if len(row) > 0 && lipgloss.Width(row[0].Text) > labelWidth {
			labelWidth = lipgloss.Width(row[0].Text)
		}
	}
	lines := make([]string, 0, len(rows))
	label := f.styles.Label.Width(labelWidth + 2)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		lines = append(lines, "  "+label.Render(row[0].Text+":")+f.cell(row[1]))
	}
	return strings.Join(lines, "\n")
}

func (f Formatter) cell(c Cell) string {
	text := truncate.StringWithTail(c.Text, maxCellWidth, "…")
	if s, ok := f.styles.tone(c.Tone); ok {
		return s.Render(text)
	}
	return text
}

func (f Formatter) footnote(n int) string {
	noun := "records"
	if n == 1 {
		noun = "record"
	}
	return f.styles.Muted.Render(fmt.Sprintf("(%d malformed %s skipped)", n, noun))
}

func (f Formatter) wrap(s string) string {
	if f.width <= 0 {
		return s
	}
	return wordwrap.String(s, f.width)
}

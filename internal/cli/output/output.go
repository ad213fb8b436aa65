// Package output renders CLI results in one of a few interchangeable
// formats, so commands write their result once and let the renderer decide
// whether it lands on a human terminal or a machine consumer.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects how a Renderer formats values.
type Mode string

const (
	ModeConsole Mode = "console"
	ModeJSON    Mode = "json"
)

// ParseMode validates a --format flag value, defaulting to ModeConsole.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeConsole:
		return ModeConsole, nil
	case ModeJSON:
		return ModeJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want %q or %q)", s, ModeConsole, ModeJSON)
	}
}

// Styles are the lipgloss styles a Renderer applies in text mode. They
// degrade to plain strings when the output stream isn't a color terminal.
type Styles struct {
	Header lipgloss.Style
	Muted  lipgloss.Style
	Bold   lipgloss.Style
	Good   lipgloss.Style
	Bad    lipgloss.Style
}

func defaultStyles(color bool) Styles {
	if !color {
		return Styles{}
	}
	return Styles{
		Header: lipgloss.NewStyle().Bold(true),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Bold:   lipgloss.NewStyle().Bold(true),
		Good:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}

// Renderer writes a command's results to outW (stdout) and diagnostics to
// errW (stderr), formatted per mode.
type Renderer struct {
	outW, errW io.Writer
	mode       Mode
	styles     Styles
}

// NewRenderer builds a Renderer. Color follows termenv's environment-based
// profile detection; outW itself is not inspected.
func NewRenderer(outW, errW io.Writer, mode Mode) *Renderer {
	color := termenv.EnvColorProfile() != termenv.Ascii
	return &Renderer{outW: outW, errW: errW, mode: mode, styles: defaultStyles(color)}
}

// EffectiveMode returns the mode the Renderer was constructed with.
func (r *Renderer) EffectiveMode() Mode { return r.mode }

// Styles returns the Renderer's text-mode styles.
func (r *Renderer) Styles() Styles { return r.styles }

// Println writes a line to stdout in text mode. In JSON mode it is a no-op:
// JSON output carries only what JSON writes.
func (r *Renderer) Println(a ...any) {
	if r.mode != ModeConsole {
		return
	}
	fmt.Fprintln(r.outW, a...)
}

// Printf writes a formatted line to stdout in text mode.
func (r *Renderer) Printf(format string, a ...any) {
	if r.mode != ModeConsole {
		return
	}
	fmt.Fprintf(r.outW, format, a...)
}

// Warning writes a diagnostic to stderr, styled in text mode, always as a
// single JSON-lines object in JSON mode so scripted callers can still see it.
func (r *Renderer) Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if r.mode == ModeJSON {
		_ = json.NewEncoder(r.errW).Encode(map[string]string{"level": "warning", "message": msg})
		return
	}
	fmt.Fprintln(r.errW, r.styles.Bad.Render("warning:"), msg)
}

// JSON marshals v to stdout. It is the only thing a command should write in
// JSON mode; callers still call it when mode is text to fall back gracefully
// if text-mode rendering doesn't cover a value.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

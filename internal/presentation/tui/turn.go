package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/weft/pkg/ports"
)

// Printer writes rendered turns for a human reader.
type Printer struct {
	w      io.Writer
	out    *termenv.Output
	render func(string) (string, error)
}

// NewPrinter creates a Printer for f. Terminals get markdown rendered by glamour,
// other outputs get the plain prompt text.
func NewPrinter(f *os.File) *Printer {
	p := &Printer{w: f, out: termenv.NewOutput(f)}
	if IsTerminal(f) {
		if r, err := NewRenderer(Width(f)); err == nil {
			p.render = r
		}
	}
	return p
}

// NewPlainPrinter creates a Printer that never styles its output.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w, out: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
}

// Markdown formats a turn as a markdown document: system prompt, prompt and actions.
func Markdown(turn ports.RenderedTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s · step %d", turn.Thread, turn.Step)
	if turn.ToolCall > 0 {
		fmt.Fprintf(&b, " · tool call %d", turn.ToolCall)
	}
	b.WriteString("\n\n")
	if turn.System != "" {
		b.WriteString("## System\n\n```\n" + turn.System + "\n```\n\n")
	}
	b.WriteString("## Prompt\n\n```\n" + turn.Prompt + "\n```\n")
	if len(turn.Descriptors) > 0 {
		b.WriteString("\n## Actions\n\n")
		for _, d := range turn.Descriptors {
			fmt.Fprintf(&b, "- **%s**", d.Name)
			if d.Description != "" {
				b.WriteString(": " + d.Description)
			}
			if fields := d.Parameters.Fields(); len(fields) > 0 {
				params := make([]string, len(fields))
				for i, f := range fields {
					params[i] = f + " " + d.Parameters[f].Name()
				}
				fmt.Fprintf(&b, " (`%s`)", strings.Join(params, ", "))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Turn writes turn. Without a markdown renderer only the prompt text is written,
// so the output can be piped as-is.
func (p *Printer) Turn(turn ports.RenderedTurn) error {
	if p.render == nil {
		_, err := fmt.Fprintln(p.w, turn.Prompt)
		return err
	}
	s, err := p.render(Markdown(turn))
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.w, s)
	return err
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Info writes a dimmed status line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, p.out.String(fmt.Sprintf(format, args...)).Faint())
}

// Error writes a highlighted error line.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.w, p.out.String("error: "+err.Error()).Foreground(p.out.Color("#fb7185")))
}

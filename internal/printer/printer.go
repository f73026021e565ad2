// Package printer writes styled status lines for command output. Commands
// find the printer on their context via Ctx.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/repodoc/internal/core/styles"
)

type ctxKey struct{}

// Printer writes human-readable status lines, usually to stderr so stdout
// stays clean for documents and JSON.
type Printer struct {
	w io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewContext returns a context carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored on ctx, or a stderr printer.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

// Writer returns the underlying stream.
func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) line(prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if prefix == "" {
		_, _ = fmt.Fprintln(p.w, msg)
		return
	}
	_, _ = fmt.Fprintln(p.w, prefix+" "+msg)
}

func (p *Printer) Printf(format string, args ...any) {
	p.line("", format, args...)
}

func (p *Printer) Successf(format string, args ...any) {
	p.line(styles.TextSuccessStyle.Render("✔"), format, args...)
}

func (p *Printer) Infof(format string, args ...any) {
	p.line(styles.TextPrimaryBoldStyle.Render("●"), format, args...)
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(styles.TextWarningStyle.Render("●"), format, args...)
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(styles.TextErrorStyle.Render("✘"), format, args...)
}

// Section prints a bold heading.
func (p *Printer) Section(title string) {
	p.line("", "%s", styles.TextForegroundBoldStyle.Render(title))
}

func (p *Printer) CheckItem(label, detail string) {
	p.item(styles.TextSuccessStyle.Render("✔"), label, detail)
}

func (p *Printer) WarnItem(label, detail string) {
	p.item(styles.TextWarningStyle.Render("●"), label, detail)
}

func (p *Printer) FailItem(label, detail string) {
	p.item(styles.TextErrorStyle.Render("✘"), label, detail)
}

func (p *Printer) item(icon, label, detail string) {
	if detail != "" {
		detail = " " + styles.TextMutedStyle.Render(detail)
	}
	_, _ = fmt.Fprintf(p.w, "  %s %s%s\n", icon, label, detail)
}

package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/core/styles"
	"github.com/colonyops/repodoc/internal/state"
)

const defaultWordWrap = 100

// renderKey identifies the inputs of the last markdown render.
type renderKey struct {
	markdown string
	width    int
}

// refreshDocs re-renders the documentation into the viewport when the
// documentation, architecture, or width changed.
func (m *Model) refreshDocs() {
	if m.st.View != state.ViewDocs {
		return
	}
	md := DocsMarkdown(m.st.Documentation, m.st.Architecture)
	width := m.renderWidth()
	k := renderKey{markdown: md, width: width}
	if k == m.rendered {
		return
	}
	m.rendered = k

	out, err := RenderMarkdown(md, width)
	if err != nil {
		m.log.Warn().Err(err).Msg("markdown render failed, showing raw text")
		out = md
	}
	m.viewport.SetContent(out)
}

func (m *Model) renderWidth() int {
	w := m.wordWrap
	if m.width > 0 && m.width-4 < w {
		w = m.width - 4
	}
	return max(w, 20)
}

func (m *Model) resizeViewport() {
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-8, 3)
	m.refreshDocs()
}

// RenderMarkdown renders markdown for the terminal using the active theme.
func RenderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(md)
}

// DocsMarkdown joins the documentation with a summary of the architecture.
func DocsMarkdown(doc string, arch *analysis.Architecture) string {
	summary := ArchitectureSummary(arch)
	if summary == "" {
		return doc
	}
	return strings.TrimRight(doc, "\n") + "\n\n" + summary
}

// ArchitectureSummary renders the dependency metrics as a markdown section.
// A nil architecture yields "".
func ArchitectureSummary(arch *analysis.Architecture) string {
	if arch == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Architecture\n\n")
	fmt.Fprintf(&b, "- **Components:** %d\n", arch.Metrics.TotalComponents)
	fmt.Fprintf(&b, "- **Dependencies:** %d\n", arch.Metrics.TotalDependencies)
	fmt.Fprintf(&b, "- **Density:** %.2f\n", arch.Metrics.DependencyDensity)
	if arch.Metrics.MostDependedComponent != "" {
		fmt.Fprintf(&b, "- **Most depended on:** `%s`\n", arch.Metrics.MostDependedComponent)
	}
	if len(arch.Structure.Layers) > 0 {
		fmt.Fprintf(&b, "- **Layers:** %s\n", strings.Join(arch.Structure.Layers, " → "))
	}
	if len(arch.Structure.Patterns) > 0 {
		fmt.Fprintf(&b, "- **Patterns:** %s\n", strings.Join(arch.Structure.Patterns, ", "))
	}
	if arch.Structure.Complexity != "" {
		fmt.Fprintf(&b, "- **Complexity:** %s\n", arch.Structure.Complexity)
	}

	if len(arch.Components) > 0 {
		names := make([]string, 0, len(arch.Components))
		for name := range arch.Components {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("\n| Component | Type | File |\n|---|---|---|\n")
		for _, name := range names {
			c := arch.Components[name]
			fmt.Fprintf(&b, "| %s | %s | %s |\n", name, c.Type, c.FilePath)
		}
	}

	return b.String()
}

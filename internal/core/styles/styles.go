// Package styles provides shared lipgloss styles for CLI and TUI output.
package styles

import (
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/repodoc/internal/core/analysis"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI text styles.
	TextPrimaryBoldStyle    lipgloss.Style
	TextForegroundBoldStyle lipgloss.Style
	TextMutedStyle          lipgloss.Style
	TextSuccessStyle        lipgloss.Style
	TextWarningStyle        lipgloss.Style
	TextErrorStyle          lipgloss.Style

	// TUI shared styles.
	TitleStyle        lipgloss.Style
	SubtitleStyle     lipgloss.Style
	InputFrameStyle   lipgloss.Style
	ErrorBannerStyle  lipgloss.Style
	HelpStyle         lipgloss.Style
	CursorRowStyle    lipgloss.Style
	NormalRowStyle    lipgloss.Style
	SelectedMarkStyle lipgloss.Style
	PanelStyle        lipgloss.Style
	PanelTitleStyle   lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TextPrimaryBoldStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	TextForegroundBoldStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	TextMutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TextSuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	TextWarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	TextErrorStyle = lipgloss.NewStyle().Foreground(p.Error)

	TitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		MarginBottom(1)
	SubtitleStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)
	InputFrameStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(0, 1)
	ErrorBannerStyle = lipgloss.NewStyle().
		Foreground(p.Error).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Error).
		PaddingLeft(1)
	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)
	CursorRowStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Background(p.Surface).
		Bold(true)
	NormalRowStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	SelectedMarkStyle = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)
	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)
	PanelTitleStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)
}

// StatusStyle returns the style used to render a task status.
func StatusStyle(s analysis.Status) lipgloss.Style {
	switch {
	case s == analysis.StatusCompleted:
		return TextSuccessStyle
	case s == analysis.StatusFailed:
		return TextErrorStyle
	case s.InProgress() || s == analysis.StatusPending:
		return TextWarningStyle
	default:
		return TextMutedStyle
	}
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func colorPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	fg := colorPtr(p.Foreground)
	primary := colorPtr(p.Primary)
	secondary := colorPtr(p.Secondary)
	muted := colorPtr(p.Muted)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = colorPtr(p.Surface)
	cfg.H2.Color = primary
	cfg.H3.Color = primary
	cfg.H4.Color = primary
	cfg.H5.Color = primary
	cfg.H6.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	cfg.Table.Color = fg

	return cfg
}

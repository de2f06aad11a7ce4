package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorTitle  = lipgloss.Color("#5FAFFF")
	colorAccent = lipgloss.Color("#AF87FF")
	colorMuted  = lipgloss.Color("#888888")
	colorError  = lipgloss.Color("#FF5F87")
)

var (
	styleGroup   = lipgloss.NewStyle().Foreground(colorTitle).Bold(true).Underline(true)
	styleSection = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleBody    = lipgloss.NewStyle().PaddingLeft(2)
)

// swatch 以颜色本身为背景渲染色值
func swatch(hex string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Render(hex)
}

package tui

import "github.com/charmbracelet/lipgloss"

var logoLeft = []string{
	"                     ",
	"█▀▀█ █▀▀█ █▀▀▀ █▀▀▄  ",
	"█__█ █__█ █___ █  █  ",
	"▀▀▀▀ ▀▀▀▀ ▀▀▀▀ ▀  ▀  ",
}

var logoRight = []string{
	"                 ",
	" █▀▀█ █   █▀▀█ █   █",
	" █___ █__ █__█ █ █ █",
	" ▀▀▀▀ ▀▀▀ ▀▀▀▀ ▀▀▀▀▀",
}

func renderLogo(width int) string {
	theme := getTheme()
	var result string

	for i := range logoLeft {
		left := lipgloss.NewStyle().Foreground(theme.textMuted).Render(logoLeft[i])
		right := lipgloss.NewStyle().Foreground(theme.text).Bold(true).Render(logoRight[i])
		line := left + " " + right
		padding := (width - lipgloss.Width(line)) / 2
		if padding > 0 {
			line = lipgloss.NewStyle().PaddingLeft(padding).Render(line)
		}
		result += line + "\n"
	}
	return result
}

func renderMiniLogo() string {
	theme := getTheme()
	return lipgloss.NewStyle().Foreground(theme.textMuted).Render("open") +
		lipgloss.NewStyle().Foreground(theme.text).Bold(true).Render("claw")
}

package scheme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"themedmark/markup"
	"themedmark/model"
)

var (
	nameStyle    = lipgloss.NewStyle().Bold(true).Width(24)
	tokenStyle   = lipgloss.NewStyle().Faint(true).Width(24)
	activeStyle  = lipgloss.NewStyle().Underline(true)
	inactiveText = lipgloss.NewStyle().Faint(true)
)

// RenderSwatches lays schemes out one per line with a color block for each mode.
// The column for the current mode is underlined.
func RenderSwatches(schemes []model.ColorScheme, current model.Mode) string {
	if len(schemes) == 0 {
		return inactiveText.Render("no color schemes configured") + "\n"
	}

	var b strings.Builder
	for _, s := range schemes {
		b.WriteString(nameStyle.Render(s.Name))
		b.WriteString(tokenStyle.Render(markup.Token(s.Name)))
		b.WriteString(swatch(s, model.Light, current))
		b.WriteString("  ")
		b.WriteString(swatch(s, model.Dark, current))
		b.WriteString("\n")
	}
	return b.String()
}

func swatch(s model.ColorScheme, m, current model.Mode) string {
	block := lipgloss.NewStyle().Background(lipgloss.Color(s.Color(m))).Render("    ")
	label := m.String() + " " + s.Color(m)
	if m == current {
		label = activeStyle.Render(label)
	} else {
		label = inactiveText.Render(label)
	}
	return block + " " + label
}

package home

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/screens/welcome"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// renderTitle centers the banner, falling back to the spaced wordmark on
// narrow or short terminals.
func renderTitle(cw int, compact bool) string {
	width := cw
	if compact {
		width = 0
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(welcome.RenderBanner(width))
}

// renderStatsBar renders the learner's standing in a bordered box matching
// content width.
func renderStatsBar(st Stats, cw int, compact bool) string {
	doneStyle := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	attemptStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)

	var stats string
	if compact {
		stats = fmt.Sprintf("%s  %s",
			doneStyle.Render(fmt.Sprintf("✓%d/%d", st.Completed, st.Subtopics)),
			attemptStyle.Render(fmt.Sprintf("#%d", st.Attempts)),
		)
	} else {
		stats = fmt.Sprintf("%s    %s",
			doneStyle.Render(fmt.Sprintf("✓ %d OF %d SUBTOPICS", st.Completed, st.Subtopics)),
			attemptStyle.Render(fmt.Sprintf("%d ATTEMPTS", st.Attempts)),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

func renderError(msg string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Error).
		Width(cw).
		Align(lipgloss.Center).
		Render("Could not load progress: " + msg)
}

func renderMenu(m components.Menu, cw int) string {
	return components.Card(m.View(), cw)
}

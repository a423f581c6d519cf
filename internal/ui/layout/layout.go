// Package layout draws the chrome around every screen: the header bar,
// the key-hint footer and the undersized-terminal notice.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// The client refuses to draw below this size; quiz cards wrap badly
// under 72 columns.
const (
	MinWidth  = 72
	MinHeight = 20
)

// crumbSep joins screen titles in the header trail.
const crumbSep = " › "

// KeyHint is one "key description" pair in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// IsTooSmall reports whether the terminal is below MinWidth x MinHeight.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the learner to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("Terminal too small.\n\nNeed at least %dx%d, have %dx%d.",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Align(lipgloss.Center).Render(msg))
}

// Breadcrumb joins the titles of the open screens, dropping empty ones.
// When the trail does not fit in limit cells the oldest titles are elided.
func Breadcrumb(titles []string, limit int) string {
	kept := make([]string, 0, len(titles))
	for _, t := range titles {
		if t != "" {
			kept = append(kept, t)
		}
	}
	trail := strings.Join(kept, crumbSep)
	for len(kept) > 1 && lipgloss.Width(trail) > limit {
		kept = kept[1:]
		trail = "…" + crumbSep + strings.Join(kept, crumbSep)
	}
	return trail
}

// RenderHeader draws the product name, the centered screen trail and,
// once known, the learner name.
func RenderHeader(trail, learner string, width int) string {
	inner := max(width-4, 0)

	brand := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  adaptiq")
	who := ""
	if learner != "" {
		who = lipgloss.NewStyle().Foreground(theme.Accent).Render("● " + learner)
	}
	side := max(lipgloss.Width(brand), lipgloss.Width(who))
	middle := max(inner-2*side, 0)

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.PlaceHorizontal(side, lipgloss.Left, brand),
		lipgloss.PlaceHorizontal(middle, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Text).Render(trail)),
		lipgloss.PlaceHorizontal(side, lipgloss.Right, who),
	)
	return bar(width).Render(row)
}

// RenderFooter draws the key hints left to right.
func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString("  ")
	for i, h := range hints {
		if i > 0 {
			b.WriteString("   ")
		}
		b.WriteString(key.Render(h.Key))
		b.WriteByte(' ')
		b.WriteString(desc.Render(h.Description))
	}
	return bar(width).Render(b.String())
}

// BodyHeight is what is left for the screen once header and footer are
// drawn.
func BodyHeight(header, footer string, height int) int {
	return max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
}

// RenderFrame stacks header, body and footer, padding the body so the
// footer stays pinned to the bottom row.
func RenderFrame(header, body, footer string, width, height int) string {
	body = lipgloss.NewStyle().
		Width(width).
		Height(BodyHeight(header, footer, height)).
		Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

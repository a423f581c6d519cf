package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/ui/theme"
)

const bannerArt = `
  █████╗ ██████╗  █████╗ ██████╗ ████████╗██╗ ██████╗
 ██╔══██╗██╔══██╗██╔══██╗██╔══██╗╚══██╔══╝██║██╔═══██╗
 ███████║██║  ██║███████║██████╔╝   ██║   ██║██║   ██║
 ██╔══██║██║  ██║██╔══██║██╔═══╝    ██║   ██║██║▄▄ ██║
 ██║  ██║██████╔╝██║  ██║██║        ██║   ██║╚██████╔╝
 ╚═╝  ╚═╝╚═════╝ ╚═╝  ╚═╝╚═╝        ╚═╝   ╚═╝ ╚══▀▀═╝`

const bannerCompact = "A D A P T I Q"

const bannerMinWidth = 56

// RenderBanner returns the product banner, falling back to spaced letters
// on terminals narrower than the art.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerMinWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}

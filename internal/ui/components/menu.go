package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// MenuItem is one entry of a Menu. Disabled entries are drawn dimmed and
// skipped by the cursor.
type MenuItem struct {
	Label    string
	Note     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list of actions driven by arrows, vi keys or the
// item's number.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu places the cursor on the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.step(+1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

// step moves the cursor to the next enabled item in direction dir and
// leaves it in place when there is none.
func (m *Menu) step(dir int) {
	for i := m.Selected + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

func (m Menu) activate(i int) tea.Cmd {
	if i < 0 || i >= len(m.Items) {
		return nil
	}
	it := m.Items[i]
	if it.Disabled || it.Action == nil {
		return nil
	}
	return it.Action()
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := k.String(); s {
	case "up", "k":
		m.step(-1)
	case "down", "j":
		m.step(+1)
	case "home", "g":
		m.Selected = -1
		m.step(+1)
	case "end", "G":
		m.Selected = len(m.Items)
		m.step(-1)
	case "enter":
		return m, m.activate(m.Selected)
	default:
		// 1-9 jump straight to an item.
		if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(m.Items) && !m.Items[n-1].Disabled {
			m.Selected = n - 1
			return m, m.activate(m.Selected)
		}
	}
	return m, nil
}

func (m Menu) View() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var b strings.Builder
	for i, it := range m.Items {
		label := "    " + it.Label
		switch {
		case i == m.Selected:
			label = theme.Selected.Render("  ▸ " + it.Label)
		case it.Disabled:
			label = dim.Render(label)
		default:
			label = theme.Unselected.Render(label)
		}
		b.WriteString(label)
		if it.Note != "" {
			b.WriteString("  " + dim.Render(it.Note))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Package router keeps the stack of open screens and applies the
// navigation messages screens emit.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/screen"
)

// navigation is implemented by every message the router consumes itself
// instead of forwarding to the active screen.
type navigation interface {
	apply(r *Router) tea.Cmd
}

// PushScreenMsg opens Screen on top of the current one.
type PushScreenMsg struct{ Screen screen.Screen }

// PopScreenMsg closes the current screen. The root screen is never popped.
type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the current screen for Screen, e.g. a finished
// quiz for its summary, so Back skips the finished screen.
type ReplaceScreenMsg struct{ Screen screen.Screen }

// PopToRootMsg closes everything above the root and re-initialises it.
type PopToRootMsg struct{}

func (m PushScreenMsg) apply(r *Router) tea.Cmd    { return r.Push(m.Screen) }
func (PopScreenMsg) apply(r *Router) tea.Cmd       { return r.Pop() }
func (m ReplaceScreenMsg) apply(r *Router) tea.Cmd { return r.Replace(m.Screen) }
func (PopToRootMsg) apply(r *Router) tea.Cmd       { return r.PopToRoot() }

// Router is a non-empty stack of screens; the last element is active.
type Router struct {
	stack []screen.Screen
}

// New returns a router whose root is root.
func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

func (r *Router) top() int { return len(r.stack) - 1 }

// Push opens s and returns its Init command.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop closes the active screen unless it is the root. The revealed
// screen keeps its state and is not re-initialised.
func (r *Router) Pop() tea.Cmd {
	if r.top() > 0 {
		r.stack[r.top()] = nil
		r.stack = r.stack[:r.top()]
	}
	return nil
}

// Replace swaps the active screen for s.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if len(r.stack) == 0 {
		return r.Push(s)
	}
	r.stack[r.top()] = s
	return s.Init()
}

// PopToRoot closes every screen above the root. The root is
// re-initialised so it can refresh what the closed screens changed.
func (r *Router) PopToRoot() tea.Cmd {
	clear(r.stack[1:])
	r.stack = r.stack[:1]
	return r.stack[0].Init()
}

// Active is the screen receiving input.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[r.top()]
}

// Depth counts the open screens, root included.
func (r *Router) Depth() int { return len(r.stack) }

// Trail lists the titles of the open screens from root to active.
func (r *Router) Trail() []string {
	titles := make([]string, len(r.stack))
	for i, s := range r.stack {
		titles[i] = s.Title()
	}
	return titles
}

// Update applies navigation messages and forwards everything else to
// the active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	if nav, ok := msg.(navigation); ok {
		return nav.apply(r)
	}
	active := r.Active()
	if active == nil {
		return nil
	}
	next, cmd := active.Update(msg)
	r.stack[r.top()] = next
	return cmd
}

// View renders the active screen into width x height cells.
func (r *Router) View(width, height int) string {
	if active := r.Active(); active != nil {
		return active.View(width, height)
	}
	return ""
}

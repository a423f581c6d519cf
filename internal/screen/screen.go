package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/attempt"
	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/abhisek/adaptiq/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Engine is the subset of the attempt engine the terminal client drives.
type Engine interface {
	Start(ctx context.Context, req attempt.StartRequest) (*attempt.Outcome, error)
	Resume(ctx context.Context, attemptID string, in attempt.ResumeInput) (*attempt.Outcome, error)
	Retry(ctx context.Context, attemptID string) (*attempt.Outcome, error)
	End(ctx context.Context, attemptID string) (*attempt.Outcome, error)
}

// Services are the collaborators shared by every screen.
type Services struct {
	Engine      Engine
	Gate        attempt.Gate
	Curriculum  store.CurriculumRepo
	Progress    store.ProgressRepo
	Transcripts store.TranscriptRepo

	// Learner is set once the learner has identified themselves.
	Learner string

	// Policy and Target seed new attempts. Target 0 uses the engine
	// default.
	Policy bank.Policy
	Target int
}

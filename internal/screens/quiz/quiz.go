package quiz

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/abhisek/adaptiq/internal/attempt"
	"github.com/abhisek/adaptiq/internal/itemgen"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/screens/summary"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/layout"
)

// QuizScreen drives one attempt: it starts it, renders whatever payload
// the engine suspends with and feeds the learner's input back.
type QuizScreen struct {
	svc        *screen.Services
	req        attempt.StartRequest
	outcome    *attempt.Outcome
	mc         components.MultiChoice
	busy       bool
	confirmEnd bool
	errMsg     string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New creates a QuizScreen for the learner's next attempt at
// (topic, subtopic). The attempt identifier is fixed up front so a failed
// start can be retried without opening a second attempt.
func New(svc *screen.Services, topic, subtopic string) *QuizScreen {
	return &QuizScreen{
		svc: svc,
		req: attempt.StartRequest{
			AttemptID: uuid.NewString(),
			LearnerID: svc.Learner,
			Topic:     topic,
			Subtopic:  subtopic,
			Policy:    svc.Policy,
			Target:    svc.Target,
		},
	}
}

func (s *QuizScreen) Init() tea.Cmd {
	s.busy = true
	return s.startCmd()
}

func (s *QuizScreen) Title() string {
	return fmt.Sprintf("%s › %s", s.req.Topic, s.req.Subtopic)
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "R", Description: "Retry"}, {Key: "Esc", Description: "Back"}}
	case s.busy || s.outcome == nil:
		return nil
	case s.confirmEnd:
		return []layout.KeyHint{{Key: "Y", Description: "End attempt"}, {Key: "N", Description: "Keep going"}}
	}
	switch s.payloadType() {
	case attempt.PayloadLocked:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	case attempt.PayloadNoItem, attempt.PayloadSelectionPending:
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "E", Description: "End attempt"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "1-4", Description: "Answer"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "End"},
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case outcomeMsg:
		return s.handleOutcome(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) handleOutcome(msg outcomeMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = describe(msg.Err)
		return s, nil
	}

	s.errMsg = ""
	s.confirmEnd = false
	s.outcome = msg.Outcome

	if msg.Outcome.Status == attempt.StatusFinished {
		done := summary.New(s.svc, msg.Outcome)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: done} }
	}
	if p := msg.Outcome.Payload; p != nil && p.Type == attempt.PayloadAwaitAnswer {
		s.mc = components.NewMultiChoice(p.Question, p.Choices)
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		switch key {
		case "r", "R":
			s.errMsg = ""
			s.busy = true
			return s, s.retryCmd()
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if s.busy || s.outcome == nil {
		return s, nil
	}

	if s.confirmEnd {
		switch key {
		case "y", "Y":
			s.busy = true
			return s, s.endCmd()
		case "n", "N", "esc":
			s.confirmEnd = false
		}
		return s, nil
	}

	switch s.payloadType() {
	case attempt.PayloadLocked:
		if key == "esc" || key == "enter" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil

	case attempt.PayloadNoItem, attempt.PayloadSelectionPending:
		switch key {
		case "r", "R":
			s.busy = true
			return s, s.retryCmd()
		case "e", "E":
			s.confirmEnd = true
		case "esc":
			// The attempt stays suspended and can be resumed later.
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil

	case attempt.PayloadAwaitAnswer:
		if key == "esc" {
			s.confirmEnd = true
			return s, nil
		}
		s.mc, _ = s.mc.Update(msg)
		if s.mc.Submitted {
			s.busy = true
			return s, s.answerCmd(s.mc.ChosenIndex, s.outcome.Payload.Index)
		}
		return s, nil
	}
	return s, nil
}

func (s *QuizScreen) payloadType() attempt.PayloadType {
	if s.outcome == nil || s.outcome.Payload == nil {
		return ""
	}
	return s.outcome.Payload.Type
}

func (s *QuizScreen) startCmd() tea.Cmd {
	engine, req := s.svc.Engine, s.req
	return func() tea.Msg {
		out, err := engine.Start(context.Background(), req)
		return outcomeMsg{Outcome: out, Err: err}
	}
}

func (s *QuizScreen) answerCmd(choice int, index *int) tea.Cmd {
	engine, id := s.svc.Engine, s.req.AttemptID
	in := attempt.ResumeInput{CurrentAnswer: choice}
	if index != nil {
		i := *index
		in.Index = &i
	}
	return func() tea.Msg {
		out, err := engine.Resume(context.Background(), id, in)
		return outcomeMsg{Outcome: out, Err: err}
	}
}

// retryCmd re-runs selection. An attempt that never reached its first
// checkpoint is started again under the same identifier.
func (s *QuizScreen) retryCmd() tea.Cmd {
	engine, req := s.svc.Engine, s.req
	return func() tea.Msg {
		ctx := context.Background()
		out, err := engine.Retry(ctx, req.AttemptID)
		if errors.Is(err, attempt.ErrUnknownAttempt) || errors.Is(err, attempt.ErrNotAwaiting) {
			out, err = engine.Start(ctx, req)
		}
		return outcomeMsg{Outcome: out, Err: err}
	}
}

func (s *QuizScreen) endCmd() tea.Cmd {
	engine, id := s.svc.Engine, s.req.AttemptID
	return func() tea.Msg {
		out, err := engine.End(context.Background(), id)
		return outcomeMsg{Outcome: out, Err: err}
	}
}

// describe turns engine errors into something a learner can act on.
func describe(err error) string {
	var genErr *itemgen.GenerationError
	switch {
	case errors.Is(err, attempt.ErrCheckpoint):
		return "Progress could not be saved. Check the database and retry."
	case errors.Is(err, attempt.ErrAbandoned):
		return "This attempt expired after a long pause. Start a new one."
	case errors.Is(err, attempt.ErrFinished):
		return "This attempt is already finished."
	case errors.As(err, &genErr):
		return "New items could not be generated right now (" + genErr.Reason + ")."
	}
	return err.Error()
}

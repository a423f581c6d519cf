// Package attempt runs assessment attempts as an explicit state machine
// that suspends between turns and resumes from a durable checkpoint.
package attempt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/curriculum"
)

// Phase is a state of the attempt state machine.
type Phase string

const (
	PhaseGating       Phase = "gating"
	PhaseInitializing Phase = "initializing"
	PhaseSelecting    Phase = "selecting_item"
	PhaseAwaiting     Phase = "awaiting_response"
	PhaseUpdating     Phase = "updating"
	PhaseTerminated   Phase = "terminated"
	PhaseBlocked      Phase = "blocked"
)

// TerminalPhases lists the phases an attempt never leaves.
func TerminalPhases() []string {
	return []string{string(PhaseTerminated), string(PhaseBlocked)}
}

// DefaultDifficulty is used when a start request names none.
const DefaultDifficulty = "intermediate"

// Answer is one processed response.
type Answer struct {
	Position int  `json:"position"`
	Chosen   int  `json:"chosen"`
	Correct  bool `json:"correct"`
}

// State is everything needed to resume an attempt. It is the unit that is
// checkpointed at every suspension.
type State struct {
	AttemptID  string      `json:"attempt_id"`
	LearnerID  string      `json:"learner_id"`
	Topic      string      `json:"topic"`
	Subtopic   string      `json:"subtopic"`
	Difficulty string      `json:"difficulty"`
	Policy     bank.Policy `json:"policy"`
	Phase      Phase       `json:"phase"`

	// Target and PassMark are fixed at initialization so a config change
	// never alters an attempt in flight.
	Target   int     `json:"target"`
	PassMark float64 `json:"pass_mark"`

	// Served is append-only. Position counts processed answers, so
	// Position <= len(Served) <= Target.
	Served   []bank.Item `json:"served"`
	Answers  []Answer    `json:"answers"`
	Position int         `json:"position"`
	Correct  int         `json:"correct"`

	// Theta is only present under the adaptive policy.
	Theta *float64 `json:"theta,omitempty"`

	// PendingAnswer is the chosen index supplied for the item at Position
	// and not yet processed.
	PendingAnswer *int `json:"pending_answer,omitempty"`

	// NoItem is set while selection is suspended for lack of candidates.
	NoItem bool `json:"no_item,omitempty"`

	Unmet      []curriculum.Ref `json:"unmet,omitempty"`
	EndedEarly bool             `json:"ended_early,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`

	// Abandoned mirrors the checkpoint's sweep flag. It is not part of the
	// serialized state.
	Abandoned bool `json:"-"`
}

// Current returns the served item awaiting an answer, or nil.
func (s *State) Current() *bank.Item {
	if s.Position < len(s.Served) {
		return &s.Served[s.Position]
	}
	return nil
}

// Finished reports whether the attempt reached a terminal phase.
func (s *State) Finished() bool {
	return s.Phase == PhaseTerminated || s.Phase == PhaseBlocked
}

// Pending reconstructs the suspension payload for the current phase. It
// returns nil for a running or terminated attempt.
func (s *State) Pending() *Payload {
	switch {
	case s.Phase == PhaseBlocked:
		return lockedPayload(s.Unmet)
	case s.Phase == PhaseSelecting && s.NoItem:
		return noItemPayload()
	case s.Phase == PhaseSelecting && s.Current() == nil:
		return selectionPendingPayload()
	case s.Phase == PhaseAwaiting && s.PendingAnswer == nil && s.Current() != nil:
		return awaitPayload(s.Position, s.Current())
	}
	return nil
}

func (s *State) validate() error {
	if s.Position < 0 || s.Position > len(s.Served) || len(s.Served) > s.Target {
		return fmt.Errorf("inconsistent attempt state: position %d, served %d, target %d",
			s.Position, len(s.Served), s.Target)
	}
	if len(s.Answers) != s.Position {
		return fmt.Errorf("inconsistent attempt state: %d answers at position %d", len(s.Answers), s.Position)
	}
	return nil
}

func encodeState(s *State) ([]byte, error) {
	return json.Marshal(s)
}

func decodeState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

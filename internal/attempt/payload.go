package attempt

import (
	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/curriculum"
)

// PayloadType distinguishes suspension payloads on the wire.
type PayloadType string

const (
	PayloadLocked      PayloadType = "locked"
	PayloadAwaitAnswer PayloadType = "await_answer"
	PayloadNoItem      PayloadType = "no_item_available"

	// PayloadSelectionPending marks an attempt whose last item selection
	// failed. Retry runs the selection again.
	PayloadSelectionPending PayloadType = "selection_pending"
)

const (
	lockedMessage  = "Complete the prerequisites before starting this topic."
	noItemMessage  = "No further eligible items are available for this attempt."
	pendingMessage = "The next item could not be selected. Retry to select it again."
)

// Payload is what a suspended attempt surfaces to its caller. Field order
// and names are part of the client contract.
type Payload struct {
	Type     PayloadType      `json:"type"`
	Message  string           `json:"message,omitempty"`
	Unmet    []curriculum.Ref `json:"unmet,omitempty"`
	Index    *int             `json:"index,omitempty"`
	Question string           `json:"question,omitempty"`
	Choices  []string         `json:"choices,omitempty"`
}

func lockedPayload(unmet []curriculum.Ref) *Payload {
	return &Payload{Type: PayloadLocked, Message: lockedMessage, Unmet: unmet}
}

func awaitPayload(index int, it *bank.Item) *Payload {
	return &Payload{Type: PayloadAwaitAnswer, Index: &index, Question: it.Question, Choices: it.Choices}
}

func noItemPayload() *Payload {
	return &Payload{Type: PayloadNoItem, Message: noItemMessage}
}

func selectionPendingPayload() *Payload {
	return &Payload{Type: PayloadSelectionPending, Message: pendingMessage}
}

// ResumeInput carries the learner's answer. Index, when set, must match
// the position being answered.
type ResumeInput struct {
	CurrentAnswer int  `json:"current_answer"`
	Index         *int `json:"index,omitempty"`
}

// Status summarizes an Outcome.
type Status string

const (
	StatusSuspended Status = "suspended"
	StatusBlocked   Status = "blocked"
	StatusFinished  Status = "finished"
)

// Outcome is the result of one engine invocation.
type Outcome struct {
	AttemptID string   `json:"attempt_id"`
	Status    Status   `json:"status"`
	Payload   *Payload `json:"payload,omitempty"`
	Result    *Result  `json:"result,omitempty"`
}

func outcomeFor(st *State) *Outcome {
	out := &Outcome{AttemptID: st.AttemptID, Payload: st.Pending()}
	switch st.Phase {
	case PhaseBlocked:
		out.Status = StatusBlocked
	case PhaseTerminated:
		out.Status = StatusFinished
		out.Result = ResultOf(st)
	default:
		out.Status = StatusSuspended
	}
	return out
}

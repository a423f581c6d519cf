package quiz

import "github.com/abhisek/adaptiq/internal/attempt"

// outcomeMsg carries the result of one engine invocation.
type outcomeMsg struct {
	Outcome *attempt.Outcome
	Err     error
}

package attempt

import "errors"

var (
	// ErrCheckpoint wraps every checkpoint read or write failure. The
	// invocation that hit it made no visible progress and may be retried.
	ErrCheckpoint = errors.New("checkpoint failure")

	ErrUnknownAttempt = errors.New("unknown attempt")

	// ErrNotAwaiting means the attempt is not in a phase that accepts the
	// requested input.
	ErrNotAwaiting = errors.New("attempt is not awaiting this input")

	// ErrStaleAnswer means the answer names a position other than the
	// one pending.
	ErrStaleAnswer = errors.New("answer is for a different item")

	ErrAbandoned = errors.New("attempt was abandoned")
	ErrFinished  = errors.New("attempt already finished")

	// ErrInvalidRequest marks a malformed start request.
	ErrInvalidRequest = errors.New("invalid attempt request")
)

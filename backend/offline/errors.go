package offline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIntent is returned by Enqueue for malformed intents; nothing is stored.
	ErrInvalidIntent = errors.New("invalid mutation intent")
	// ErrClearNotConfirmed is returned when ClearQueuedMutations is called
	// without the ConfirmDiscard token.
	ErrClearNotConfirmed = errors.New("clearing queued mutations discards unsynced changes and must be confirmed")
)

// ApplyError reports a mutation that could not be applied remotely after
// every retry. The mutation stays queued.
type ApplyError struct {
	Mutation Mutation
	Attempts int
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply %s failed after %d attempt(s): %v", e.Mutation, e.Attempts, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

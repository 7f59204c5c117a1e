package jobs

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a job ID is not in the registry.
var ErrNotFound = errors.New("job not found")

// SpawnError reports that the worker process for a job could not be started.
// The job is left in the error state and never reaches running.
type SpawnError struct {
	JobID string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start processing for job %s: %v", e.JobID, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// TransitionError reports an illegal state change, such as leaving a terminal state.
type TransitionError struct {
	JobID string
	From  Status
	To    Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("job %s: invalid transition %s -> %s", e.JobID, e.From, e.To)
}

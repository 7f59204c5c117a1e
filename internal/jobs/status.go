package jobs

// Status is the lifecycle state of a job.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusError    Status = "error"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusError
}

// allowedTransitions lists every legal edge of the job state machine.
var allowedTransitions = map[Status][]Status{
	StatusStarting: {StatusRunning, StatusError},
	StatusRunning:  {StatusFinished, StatusError},
}

func isValidTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

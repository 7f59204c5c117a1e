package jobs

import "time"

// Record is a point-in-time snapshot of one video job. Snapshots returned by the
// registry share no memory with its internal state.
type Record struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	InputPath  string     `json:"input"`
	OutputPath string     `json:"output"`
	LogPath    string     `json:"log"`
	PID        int        `json:"pid,omitempty"`
	ExitCode   *int       `json:"returncode"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	EndedAt    *time.Time `json:"ended_at"`
}

func (r Record) clone() Record {
	if r.ExitCode != nil {
		code := *r.ExitCode
		r.ExitCode = &code
	}
	if r.EndedAt != nil {
		ended := *r.EndedAt
		r.EndedAt = &ended
	}
	return r
}

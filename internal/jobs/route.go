package jobs

import "strings"

// ParseRoute extracts the job ID and action from a URL path like /jobs/{id}/{action}.
// prefix should be like "/jobs/". A path with no action ("/jobs/{id}") returns an
// empty action.
func ParseRoute(path, prefix string) (jobID, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) > 2 || !ValidID(parts[0]) {
		return "", "", false
	}

	jobID = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return jobID, action, true
}

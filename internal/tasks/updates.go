package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchMeta Phase = iota
	FetchPage
	RetryPage
	CacheWrite
	FetchDone
)

func (p Phase) String() string {
	switch p {
	case FetchMeta:
		return "fetch_meta"
	case FetchPage:
		return "fetch_page"
	case RetryPage:
		return "retry_page"
	case CacheWrite:
		return "cache_write"
	case FetchDone:
		return "fetch_done"
	default:
		return ""
	}
}

func fetchMetaUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMeta,
		Message: fmt.Sprintf("Fetching playlist %s...", name),
	}
}

func fetchPageUpdate(fetched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("Fetched %d of %d tracks...", fetched, total),
	}
}

func retryPageUpdate(attempt, limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RetryPage,
		Step:    attempt,
		Total:   limit,
		Message: fmt.Sprintf("Retrying track fetch (%d/%d)...", attempt, limit),
	}
}

func fetchDoneUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDone,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Fetched %d playable tracks.", count),
	}
}

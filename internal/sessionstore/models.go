package sessionstore

import "time"

// Status represents the lifecycle of a capture.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
	StatusAnalyzing   Status = "analyzing"
	StatusArchived    Status = "archived"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusAnalyzing,
	StatusArchived,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Capture is one journal row, keyed by the correlation token.
type Capture struct {
	Token      string
	SessionID  string
	Shot       int
	Mode       string
	Status     Status
	Filename   string
	RemotePath string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

package entity

// RemoteTaskStatus is the status reported by the image provider
type RemoteTaskStatus string

// Statuses defined by the provider contract
const (
	RemoteStatusPending   RemoteTaskStatus = "PENDING"
	RemoteStatusRunning   RemoteTaskStatus = "RUNNING"
	RemoteStatusSucceeded RemoteTaskStatus = "SUCCEEDED"
	RemoteStatusFailed    RemoteTaskStatus = "FAILED"
)

// IsKnown reports whether the status is part of the provider contract
func (s RemoteTaskStatus) IsKnown() bool {
	switch s {
	case RemoteStatusPending, RemoteStatusRunning, RemoteStatusSucceeded, RemoteStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the remote task will not change any more
func (s RemoteTaskStatus) IsTerminal() bool {
	return s == RemoteStatusSucceeded || s == RemoteStatusFailed
}

// RemoteTask is a snapshot of a provider-owned generation task
type RemoteTask struct {
	TaskID    string
	Status    RemoteTaskStatus
	ImageURLs []string // Present when Status is SUCCEEDED
	Code      string   // Provider error code when Status is FAILED
	Message   string   // Provider error message when Status is FAILED
}

// LocalStatus maps a remote status onto the history lifecycle
func (t *RemoteTask) LocalStatus() GenerationStatus {
	switch t.Status {
	case RemoteStatusSucceeded:
		return StatusCompleted
	case RemoteStatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

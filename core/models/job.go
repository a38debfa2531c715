package models

import "time"

// Job represents one remote inference job and its tracked lifecycle
type Job struct {
	ID             string
	Filename       string
	Status         JobStatus
	SubmittedAt    time.Time
	LastPolledAt   time.Time
	ElapsedSeconds float64
	Result         *JobResult
	FailureMessage string
}

// JobStatus represents the current status of a remote job
type JobStatus string

const (
	StatusQueued     JobStatus = "QUEUED"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
	StatusTimedOut   JobStatus = "TIMED_OUT"
	StatusCancelled  JobStatus = "CANCELLED"
	StatusUnknown    JobStatus = "UNKNOWN"
)

// ParseJobStatus maps a status string from the remote API into the closed
// status set. The RunPod API reports queued work as "IN_QUEUE"; anything
// unrecognized becomes StatusUnknown rather than leaking an arbitrary string
// into the state machine.
func ParseJobStatus(s string) JobStatus {
	switch s {
	case "IN_QUEUE", "QUEUED":
		return StatusQueued
	case "IN_PROGRESS":
		return StatusInProgress
	case "COMPLETED":
		return StatusCompleted
	case "FAILED":
		return StatusFailed
	case "TIMED_OUT":
		return StatusTimedOut
	case "CANCELLED":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether no further transition can occur from s
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	}
	return false
}

// JobResult is the payload the remote worker attaches to a terminal status
// response. Field names follow the worker's result dictionary.
type JobResult struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Bucket    string `json:"bucket"`
	InputKey  string `json:"input_key"`
	OutputKey string `json:"output_key"`
	Filename  string `json:"filename"`
}

// StatusReport is one observation of a remote job's state
type StatusReport struct {
	Status JobStatus
	// Raw is the status string exactly as the API returned it, kept for
	// logging when it parses to StatusUnknown
	Raw     string
	Output  *JobResult
	Message string
}

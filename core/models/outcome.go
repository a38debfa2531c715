package models

import "time"

// Outcome is the terminal record of one orchestration run. It is built once,
// when the run finishes, and never mutated afterward.
type Outcome struct {
	RunID      string
	Success    bool
	Job        *Job
	InputRef   ArtifactRef
	OutputRef  ArtifactRef
	Err        *RunError
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunRecord is one persisted run-history row
type RunRecord struct {
	ID             string
	JobID          string
	Filename       string
	Status         JobStatus
	Success        bool
	ErrorKind      string
	ErrorMessage   string
	InputKey       string
	OutputKey      string
	SubmittedAt    *time.Time
	FinishedAt     time.Time
	ElapsedSeconds float64
	CreatedAt      time.Time
}

package model

import (
	"errors"
	"time"
)

// JobStatus represents the current status of a card generation job.
type JobStatus string

const (
	// JobStatusPending indicates a job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has exhausted its retries. Terminal;
	// a new generation must be requested explicitly.
	JobStatusFailed JobStatus = "failed"
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusRunning ||
		s == JobStatusCompleted || s == JobStatusFailed
}

// ErrNoJobsAvailable is returned when no jobs are available for reservation.
var ErrNoJobsAvailable = errors.New("no jobs available")

// CardJob is a queued request to render a farmer's ID card artifacts.
// Delivery is at least once: a crashed worker's lease expires and the job is
// re-reserved, so execution must tolerate replays.
type CardJob struct {
	ID             string     `json:"id"                         db:"id"`
	FarmerID       string     `json:"farmer_id"                  db:"farmer_id"`
	Status         JobStatus  `json:"status"                     db:"status"`
	RetryCount     int        `json:"retry_count"                db:"retry_count"`
	MaxRetries     int        `json:"max_retries"                db:"max_retries"`
	LastError      *string    `json:"last_error,omitempty"       db:"last_error"`
	ScheduledAt    time.Time  `json:"scheduled_at"               db:"scheduled_at"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty" db:"lease_expires_at"`
	EnqueuedAt     time.Time  `json:"enqueued_at"                db:"enqueued_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"       db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"     db:"completed_at"`
}

// JobStatusResponse is the polling view of a job.
type JobStatusResponse struct {
	ID          string     `json:"id"`
	FarmerID    string     `json:"farmer_id"`
	Status      JobStatus  `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

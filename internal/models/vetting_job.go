package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a vetting job.
type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusPass        JobStatus = "pass"
	JobStatusFail        JobStatus = "fail"
	JobStatusQuarantined JobStatus = "quarantined"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusPass || s == JobStatusFail || s == JobStatusQuarantined
}

// VettingJob represents one asynchronous vetting run for a version.
type VettingJob struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	VersionID   uuid.UUID       `json:"version_id" db:"version_id"`
	Status      JobStatus       `json:"status" db:"status"`
	Results     json.RawMessage `json:"results,omitempty" db:"results"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// JobResults is the structure serialized into the results column.
type JobResults struct {
	Stages  []StageResult `json:"stages"`
	Message string        `json:"message,omitempty"`
}

// StageResult records the outcome of one vetting stage.
type StageResult struct {
	Stage  int    `json:"stage"`
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

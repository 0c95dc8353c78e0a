package models

import (
	"encoding/json"
	"time"
)

// JobState is the position of a design job in the tracker state machine.
type JobState string

const (
	JobStateIdle       JobState = "idle"
	JobStateSubmitting JobState = "submitting"
	JobStatePolling    JobState = "polling"
	JobStateSucceeded  JobState = "succeeded"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether no further polling happens from this state.
func (s JobState) Terminal() bool {
	return s == JobStateSucceeded || s == JobStateFailed
}

// Values of the codeMajor field returned by the status endpoint.
const (
	CodeMajorProcessing = "processing"
	CodeMajorSuccess    = "success"
	CodeMajorUnknown    = "unknown"
)

// JobHandle identifies an accepted design job. The API returns the status
// location in a 202 response; RequestID is parsed out of it and may be empty
// when the location is malformed, in which case polling is keyed by Location.
type JobHandle struct {
	RequestID   string    `json:"request_id,omitempty"`
	Location    string    `json:"location"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PollResult is a decoded status payload. Body holds the full response so
// non-success statuses can be shown verbatim; Result is the nested result
// object of a successful job.
type PollResult struct {
	CodeMajor  string          `json:"code_major"`
	Result     json.RawMessage `json:"result,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Processing reports whether the job is still running server-side.
func (p PollResult) Processing() bool {
	return p.CodeMajor == CodeMajorProcessing
}

// Succeeded reports whether the job finished with a usable result.
func (p PollResult) Succeeded() bool {
	return p.CodeMajor == CodeMajorSuccess
}

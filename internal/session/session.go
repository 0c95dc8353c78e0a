// Package session holds the per-visitor state that survives between page
// renders of one logical session. It is never written to durable storage.
package session

import (
	"time"

	"github.com/kiranshivaraju/autodesign/pkg/models"
)

// DefaultPollInterval is the fixed cadence between status checks.
const DefaultPollInterval = 10 * time.Second

// Session is the explicit per-session context passed to the tracker and the
// view handlers.
type Session struct {
	ID string `json:"id"`

	State  models.JobState   `json:"state"`
	Handle *models.JobHandle `json:"handle,omitempty"`

	// LastPollAt is zero until the first status check, which makes that
	// check due immediately.
	LastPollAt    time.Time          `json:"last_poll_at,omitempty"`
	PollInterval  time.Duration      `json:"poll_interval"`
	Polls         int                `json:"polls"`
	LastCodeMajor string             `json:"last_code_major,omitempty"`
	Result        *models.PollResult `json:"result,omitempty"`
	LastError     string             `json:"last_error,omitempty"`
	Submitting    bool               `json:"submitting"`

	Selection models.Selection `json:"selection"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// New returns a session in its initial state. A non-positive interval
// selects DefaultPollInterval.
func New(id string, interval time.Duration) *Session {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Session{
		ID:           id,
		State:        models.JobStateIdle,
		PollInterval: interval,
		Selection:    models.DefaultSelection(),
	}
}

// Reset returns the session to IDLE: the job handle, cached result, polling
// bookkeeping and last error are cleared and the form selection goes back to
// its defaults. ID and PollInterval are kept.
func (s *Session) Reset() {
	s.ClearJob()
	s.State = models.JobStateIdle
	s.Selection = models.DefaultSelection()
}

// ClearJob drops everything tied to the current job without touching the
// state or the selection.
func (s *Session) ClearJob() {
	s.Handle = nil
	s.LastPollAt = time.Time{}
	s.Polls = 0
	s.LastCodeMajor = ""
	s.Result = nil
	s.LastError = ""
	s.Submitting = false
}

// Active reports whether a job is being polled.
func (s *Session) Active() bool {
	return s.State == models.JobStatePolling && s.Handle != nil
}

// RequestID returns the current job's identifier, or "" when there is no
// handle or the identifier could not be parsed.
func (s *Session) RequestID() string {
	if s.Handle == nil {
		return ""
	}
	return s.Handle.RequestID
}

// ResultPending reports whether a terminal result is waiting to be shown.
func (s *Session) ResultPending() bool {
	return s.State.Terminal() && s.Result != nil
}

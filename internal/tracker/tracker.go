// Package tracker drives a design job through its lifecycle:
//
//	IDLE -> SUBMITTING -> POLLING -> {SUCCEEDED, FAILED} -> IDLE
//
// All state lives in the session.Session handed to each call. Step never
// sleeps; it reports how long the caller should wait before calling again.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/autodesign/internal/designapi"
	"github.com/kiranshivaraju/autodesign/internal/session"
	"github.com/kiranshivaraju/autodesign/pkg/designreq"
	"github.com/kiranshivaraju/autodesign/pkg/models"
)

// Sentinel errors for tracker operations.
var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrNoActiveJob        = errors.New("no active job")
	ErrPollLimitReached   = errors.New("poll limit reached")
)

// Tracker owns the job state machine. It is stateless itself and safe for
// concurrent use across sessions; a single session must not be stepped
// concurrently.
type Tracker struct {
	client   designapi.Client
	builder  designreq.Builder
	catalog  models.Catalog
	interval time.Duration
	maxPolls int
	now      func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval sets the poll interval for sessions that do not carry one.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithMaxPolls caps the number of status checks per job. Zero means unbounded.
func WithMaxPolls(n int) Option {
	return func(t *Tracker) {
		if n >= 0 {
			t.maxPolls = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithCatalog sets the catalog selections are validated against.
func WithCatalog(c models.Catalog) Option {
	return func(t *Tracker) { t.catalog = c }
}

func New(client designapi.Client, opts ...Option) *Tracker {
	t := &Tracker{
		client:   client,
		catalog:  models.DefaultCatalog(),
		interval: session.DefaultPollInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Interval() time.Duration { return t.interval }

func (t *Tracker) Catalog() models.Catalog { return t.catalog }

// Update describes the session after one Step.
type Update struct {
	State     models.JobState
	RequestID string
	CodeMajor string
	Polls     int
	// Polled is true when this step issued a status check.
	Polled bool
	// Wait is the time until the next check is due. Only set while polling.
	Wait   time.Duration
	Result *models.PollResult
	Err    error
}

// Submit validates sel, builds the design request and submits it.
//
// A ValidationError leaves the job state untouched. Otherwise any previous
// job is discarded and the session ends in POLLING (accepted), SUCCEEDED
// (synchronous result) or FAILED (transport or HTTP error, no handle). If
// the caller goes away mid-request the session returns to IDLE unmarked.
func (t *Tracker) Submit(ctx context.Context, sess *session.Session, sel models.Selection) error {
	if sess.State == models.JobStateSubmitting || sess.Submitting {
		return ErrSubmissionInFlight
	}

	sel = sel.Normalized()
	sess.Selection = sel
	if err := sel.Validate(t.catalog); err != nil {
		return err
	}

	sess.ClearJob()
	sess.State = models.JobStateSubmitting
	sess.Submitting = true

	start := t.now()
	out := t.client.Submit(ctx, t.builder.Build(sel))
	sess.Submitting = false

	switch out.Kind {
	case designapi.SubmitAccepted:
		id, ok := designapi.ParseRequestID(out.Location)
		if !ok {
			slog.Warn("request id not found in status location, polling by location",
				"session_id", sess.ID, "location", out.Location)
		}
		sess.Handle = &models.JobHandle{RequestID: id, Location: out.Location, SubmittedAt: start}
		sess.State = models.JobStatePolling
		slog.Info("design submitted",
			"session_id", sess.ID, "request_id", id, "duration_ms", t.now().Sub(start).Milliseconds())
		return nil

	case designapi.SubmitCompleted:
		sess.Result = &models.PollResult{
			CodeMajor:  models.CodeMajorSuccess,
			Result:     out.Body,
			Body:       out.Body,
			ReceivedAt: t.now(),
		}
		sess.LastCodeMajor = models.CodeMajorSuccess
		sess.State = models.JobStateSucceeded
		slog.Info("design completed synchronously", "session_id", sess.ID, "status", out.StatusCode)
		return nil

	default:
		err := out.Err
		if err == nil {
			err = fmt.Errorf("%w: submission failed", designapi.ErrInvalidResponse)
		}
		if errors.Is(err, designapi.ErrRequestCanceled) || ctx.Err() != nil {
			sess.State = models.JobStateIdle
			slog.Info("design submission abandoned by caller", "session_id", sess.ID, "error", err)
			return err
		}
		sess.LastError = err.Error()
		sess.State = models.JobStateFailed
		slog.Error("design submission failed", "session_id", sess.ID, "status", out.StatusCode, "error", err)
		return err
	}
}

// Resume points the session at requestID, rebuilding the status location
// from the identifier alone. An empty requestID resumes the session's
// current handle.
//
// Resuming the job the session already holds never discards a terminal
// result; it only re-activates polling that was cancelled.
func (t *Tracker) Resume(sess *session.Session, requestID string) error {
	if sess.State == models.JobStateSubmitting {
		return ErrSubmissionInFlight
	}

	if requestID == "" || (sess.Handle != nil && sess.Handle.RequestID == requestID) {
		if sess.Handle == nil {
			return ErrNoActiveJob
		}
		if sess.State == models.JobStateIdle {
			sess.State = models.JobStatePolling
		}
		return nil
	}

	sess.ClearJob()
	sess.Handle = &models.JobHandle{
		RequestID: requestID,
		Location:  designapi.ResultLocation(requestID),
	}
	sess.State = models.JobStatePolling
	slog.Info("resuming design job", "session_id", sess.ID, "request_id", requestID)
	return nil
}

// Step advances a polling session by at most one status check. It polls
// only when the interval since the last check has elapsed; otherwise it
// returns the remaining Wait. Terminal sessions return their cached result
// unchanged, so repeated calls are idempotent.
//
// If ctx is cancelled while the check is in flight the session stays in
// POLLING and the check is not counted.
func (t *Tracker) Step(ctx context.Context, sess *session.Session) Update {
	if sess.State.Terminal() {
		return t.snapshot(sess)
	}
	if !sess.Active() {
		u := t.snapshot(sess)
		u.Err = ErrNoActiveJob
		return u
	}

	interval := t.intervalFor(sess)
	now := t.now()
	if !sess.LastPollAt.IsZero() {
		if elapsed := now.Sub(sess.LastPollAt); elapsed < interval {
			u := t.snapshot(sess)
			u.Wait = interval - elapsed
			return u
		}
	}

	if t.maxPolls > 0 && sess.Polls >= t.maxPolls {
		err := fmt.Errorf("%w: %d checks without a terminal status", ErrPollLimitReached, sess.Polls)
		sess.LastError = err.Error()
		sess.State = models.JobStateFailed
		slog.Warn("giving up on design job", "session_id", sess.ID, "request_id", sess.RequestID(), "polls", sess.Polls)
		u := t.snapshot(sess)
		u.Err = err
		return u
	}

	out := t.client.Poll(ctx, sess.Handle.Location)
	if out.Err != nil && (ctx.Err() != nil || errors.Is(out.Err, designapi.ErrRequestCanceled)) {
		u := t.snapshot(sess)
		u.Err = out.Err
		if ctx.Err() != nil {
			u.Err = ctx.Err()
		}
		return u
	}

	sess.LastPollAt = now
	sess.Polls++

	if out.Err != nil {
		sess.LastError = out.Err.Error()
		sess.State = models.JobStateFailed
		slog.Error("status check failed, polling stopped",
			"session_id", sess.ID, "request_id", sess.RequestID(), "error", out.Err)
		u := t.snapshot(sess)
		u.Polled = true
		u.Err = out.Err
		return u
	}

	res := out.Result
	sess.LastCodeMajor = res.CodeMajor

	switch {
	case res.Processing():
		slog.Debug("design still processing", "session_id", sess.ID, "request_id", sess.RequestID(), "polls", sess.Polls)
		u := t.snapshot(sess)
		u.Polled = true
		u.Wait = interval
		return u
	case res.Succeeded():
		sess.State = models.JobStateSucceeded
	default:
		sess.State = models.JobStateFailed
	}

	sess.Result = res
	slog.Info("design job finished",
		"session_id", sess.ID, "request_id", sess.RequestID(), "status", res.CodeMajor, "polls", sess.Polls)
	u := t.snapshot(sess)
	u.Polled = true
	return u
}

// Cancel stops polling and returns the session to IDLE. The handle is kept
// so the job can be resumed later.
func (t *Tracker) Cancel(sess *session.Session) {
	if sess.State == models.JobStatePolling {
		sess.State = models.JobStateIdle
		slog.Info("polling cancelled", "session_id", sess.ID, "request_id", sess.RequestID())
	}
}

// Reset starts a new design: see session.Session.Reset.
func (t *Tracker) Reset(sess *session.Session) error {
	if sess.State == models.JobStateSubmitting {
		return ErrSubmissionInFlight
	}
	sess.Reset()
	return nil
}

func (t *Tracker) intervalFor(sess *session.Session) time.Duration {
	if sess.PollInterval > 0 {
		return sess.PollInterval
	}
	return t.interval
}

func (t *Tracker) snapshot(sess *session.Session) Update {
	return Update{
		State:     sess.State,
		RequestID: sess.RequestID(),
		CodeMajor: sess.LastCodeMajor,
		Polls:     sess.Polls,
		Result:    sess.Result,
	}
}

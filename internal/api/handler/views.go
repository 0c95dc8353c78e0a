package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	mw "github.com/kiranshivaraju/autodesign/internal/api/middleware"
	"github.com/kiranshivaraju/autodesign/internal/api/response"
	"github.com/kiranshivaraju/autodesign/internal/session"
	"github.com/kiranshivaraju/autodesign/internal/tracker"
	"github.com/kiranshivaraju/autodesign/internal/web"
	"github.com/kiranshivaraju/autodesign/pkg/models"
)

// SessionStore is the part of session.Store the views depend on.
type SessionStore interface {
	Update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error)
}

// JobTracker is the part of tracker.Tracker the views depend on.
type JobTracker interface {
	Submit(ctx context.Context, sess *session.Session, sel models.Selection) error
	Resume(sess *session.Session, requestID string) error
	Step(ctx context.Context, sess *session.Session) tracker.Update
	Cancel(sess *session.Session)
	Reset(sess *session.Session) error
	Catalog() models.Catalog
}

// Renderer writes an HTML view.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

// Views serves the form, progress and result pages. Which one is shown is
// decided from the progress/request_id query parameters and the session.
type Views struct {
	sessions SessionStore
	tracker  JobTracker
	renderer Renderer
}

func NewViews(s SessionStore, t JobTracker, r Renderer) *Views {
	return &Views{sessions: s, tracker: t, renderer: r}
}

// ProgressURL is the resumable link for a job. An empty id yields the bare
// progress flag, which resumes the session's current handle.
func ProgressURL(requestID string) string {
	if requestID == "" {
		return "/?progress=true"
	}
	return "/?progress=true&request_id=" + url.QueryEscape(requestID)
}

// Index handles GET /.
func (v *Views) Index(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := mw.GetSessionID(r)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Missing session", nil)
		return
	}

	q := r.URL.Query()
	if q.Get("progress") == "true" {
		v.progress(w, r, sessionID, strings.TrimSpace(q.Get("request_id")))
		return
	}

	sess, err := v.sessions.Update(r.Context(), sessionID, func(*session.Session) error { return nil })
	if err != nil {
		v.storeError(w, err)
		return
	}

	if sess.ResultPending() {
		payload := sess.Result.Body
		if sess.Result.Succeeded() {
			payload = sess.Result.Result
		}
		v.render(w, http.StatusOK, web.ResultView, web.ResultData{
			RequestID: sess.RequestID(),
			CodeMajor: sess.Result.CodeMajor,
			Succeeded: sess.Result.Succeeded(),
			Payload:   payload,
		})
		return
	}

	v.render(w, http.StatusOK, web.FormView, v.formData(sess))
}

// progress drives the tracker for one render of the progress view. The
// page reloads itself through the Refresh header until the job is terminal,
// then redirects to / without the progress parameters.
func (v *Views) progress(w http.ResponseWriter, r *http.Request, sessionID, requestID string) {
	var update tracker.Update
	sess, err := v.sessions.Update(r.Context(), sessionID, func(s *session.Session) error {
		if err := v.tracker.Resume(s, requestID); err != nil {
			return err
		}
		update = v.tracker.Step(r.Context(), s)
		return nil
	})

	switch {
	case errors.Is(err, tracker.ErrNoActiveJob):
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case errors.Is(err, tracker.ErrSubmissionInFlight):
		w.Header().Set("Refresh", "1")
		v.render(w, http.StatusOK, web.ProgressView, web.ProgressData{RequestID: requestID, RefreshSeconds: 1})
		return
	case err != nil:
		v.storeError(w, err)
		return
	}

	if sess.ResultPending() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := web.ProgressData{
		RequestID:   sess.RequestID(),
		ProgressURL: ProgressURL(sess.RequestID()),
		CodeMajor:   sess.LastCodeMajor,
		Polls:       sess.Polls,
	}

	switch {
	case sess.State == models.JobStateFailed:
		data.Error = sess.LastError
	case update.Err != nil && !errors.Is(update.Err, context.Canceled):
		data.Error = update.Err.Error()
	default:
		data.RefreshSeconds = refreshSeconds(update.Wait)
		w.Header().Set("Refresh", strconv.Itoa(data.RefreshSeconds))
	}

	v.render(w, http.StatusOK, web.ProgressView, data)
}

// Submit handles POST /design.
func (v *Views) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := mw.GetSessionID(r)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Missing session", nil)
		return
	}

	sel, formErr := parseSelection(r)

	sess, err := v.sessions.Update(r.Context(), sessionID, func(s *session.Session) error {
		if formErr != nil {
			s.Selection = sel
			return formErr
		}
		return v.tracker.Submit(r.Context(), s, sel)
	})

	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		data := v.formData(sess)
		data.Error = vErr.Message
		data.Notice = nil
		v.render(w, http.StatusUnprocessableEntity, web.FormView, data)
		return
	case errors.Is(err, tracker.ErrSubmissionInFlight):
		data := v.formData(sess)
		data.Error = "A design request is already being submitted."
		v.render(w, http.StatusConflict, web.FormView, data)
		return
	case errors.Is(err, session.ErrUnavailable):
		v.storeError(w, err)
		return
	}

	// Submission failures are kept on the session and shown by the form.
	if sess.State == models.JobStatePolling {
		http.Redirect(w, r, ProgressURL(sess.RequestID()), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// NewDesign handles POST /design/new.
func (v *Views) NewDesign(w http.ResponseWriter, r *http.Request) {
	v.mutate(w, r, v.tracker.Reset)
}

// Cancel handles POST /progress/cancel.
func (v *Views) Cancel(w http.ResponseWriter, r *http.Request) {
	v.mutate(w, r, func(s *session.Session) error {
		v.tracker.Cancel(s)
		return nil
	})
}

func (v *Views) mutate(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	sessionID, ok := mw.GetSessionID(r)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Missing session", nil)
		return
	}

	_, err := v.sessions.Update(r.Context(), sessionID, fn)
	switch {
	case errors.Is(err, tracker.ErrSubmissionInFlight):
		response.Error(w, http.StatusConflict, "SUBMISSION_IN_FLIGHT", err.Error(), nil)
		return
	case err != nil:
		v.storeError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (v *Views) formData(sess *session.Session) web.FormData {
	data := web.NewFormData(v.tracker.Catalog(), sess.Selection)
	if sess.State == models.JobStateFailed && sess.Result == nil {
		data.Error = sess.LastError
	}
	if sess.Handle != nil && !sess.State.Terminal() {
		data.Notice = &web.Notice{
			RequestID:   sess.RequestID(),
			ProgressURL: ProgressURL(sess.RequestID()),
		}
	}
	return data
}

func (v *Views) render(w http.ResponseWriter, status int, name string, data any) {
	if err := v.renderer.Render(w, status, name, data); err != nil {
		slog.Error("render view", "view", name, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render page", nil)
	}
}

func (v *Views) storeError(w http.ResponseWriter, err error) {
	slog.Error("session store", "error", err)
	response.Error(w, http.StatusServiceUnavailable, "SESSION_UNAVAILABLE", "Session storage is unavailable", nil)
}

// parseSelection reads the form fields. Unparseable dimensions are reported
// as a ValidationError; the returned selection keeps whatever did parse.
func parseSelection(r *http.Request) (models.Selection, error) {
	if err := r.ParseForm(); err != nil {
		return models.Selection{}, &models.ValidationError{Field: "form", Message: "Could not read the submitted form."}
	}

	sel := models.Selection{
		Layout:           r.PostForm.Get("layout"),
		Appliances:       r.PostForm["appliances"],
		PlumbingFixtures: r.PostForm["plumbing"],
		Cabinets:         r.PostForm["cabinets"],
		Worktop:          r.PostForm.Get("worktop"),
	}
	if sel.Layout == "" {
		sel.Layout = models.LayoutLShaped
	}

	var err error
	sel.Width, err = formInt(r, "width", models.DefaultRoomSize)
	if err != nil {
		return sel, err
	}
	sel.Depth, err = formInt(r, "depth", models.DefaultRoomSize)
	if err != nil {
		return sel, err
	}
	return sel, nil
}

func formInt(r *http.Request, field string, def int) (int, error) {
	raw := strings.TrimSpace(r.PostForm.Get(field))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, &models.ValidationError{Field: field, Message: field + " must be a whole number of millimetres."}
	}
	return n, nil
}

// refreshSeconds rounds the wait up to whole seconds, at least one.
func refreshSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

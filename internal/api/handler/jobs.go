package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/autodesign/internal/api/response"
	"github.com/kiranshivaraju/autodesign/internal/designapi"
)

// JobStatus is the body of GET /api/v1/jobs/{requestID}.
type JobStatus struct {
	RequestID string          `json:"request_id"`
	CodeMajor string          `json:"code_major"`
	Terminal  bool            `json:"terminal"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /api/v1/jobs/{requestID}.
// It rebuilds the status location from the id and performs exactly one check;
// no session state is read or written.
func NewJobStatusHandler(client designapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(chi.URLParam(r, "requestID"))
		if requestID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request id is required", nil)
			return
		}

		out := client.Poll(r.Context(), designapi.ResultLocation(requestID))
		if out.Err != nil {
			status, code := upstreamError(out.Err)
			slog.Warn("job status check failed", "request_id", requestID, "error", out.Err)
			response.Error(w, status, code, out.Err.Error(), nil)
			return
		}

		res := out.Result
		body := JobStatus{
			RequestID: requestID,
			CodeMajor: res.CodeMajor,
			Terminal:  !res.Processing(),
		}
		switch {
		case res.Succeeded():
			body.Result = res.Result
		case body.Terminal:
			body.Result = res.Body
		}

		response.JSON(w, body)
	}
}

// statusClientClosedRequest is nginx's code for a request the client
// abandoned before a response was written.
const statusClientClosedRequest = 499

func upstreamError(err error) (int, string) {
	switch {
	case errors.Is(err, designapi.ErrRequestCanceled):
		return statusClientClosedRequest, "CLIENT_CLOSED_REQUEST"
	case errors.Is(err, designapi.ErrAPITimeout):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	case errors.Is(err, designapi.ErrRequestRejected):
		return http.StatusBadGateway, "UPSTREAM_REJECTED"
	case errors.Is(err, designapi.ErrInvalidResponse):
		return http.StatusBadGateway, "UPSTREAM_INVALID_RESPONSE"
	default:
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	}
}

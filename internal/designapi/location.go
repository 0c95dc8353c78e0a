package designapi

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	submitPath     = "/ai-auto-design"
	resultPath     = "/ai-auto-design-result"
	requestIDParam = "request_id"
)

// ResultLocation rebuilds the status-check location for a request id. The
// API issues locations of exactly this form, so a job can be resumed from
// its id alone.
func ResultLocation(requestID string) string {
	return resultPath + "?" + url.Values{requestIDParam: {requestID}}.Encode()
}

// ParseRequestID extracts the request_id query value from a status location.
// It reports false when the location is malformed or carries no id.
func ParseRequestID(location string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return "", false
	}
	id := u.Query().Get(requestIDParam)
	if id == "" {
		return "", false
	}
	return id, true
}

// ResolveLocation turns a status location into an absolute URL. Absolute
// locations are used as-is. Relative ones are joined to the base URL unless
// they already start with the base path, in which case they are resolved
// against the host only.
func (c *HTTPClient) ResolveLocation(location string) (string, error) {
	u, err := resolveLocation(c.baseURL, location)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func resolveLocation(base *url.URL, location string) (*url.URL, error) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		u, err := url.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}
		return u, nil
	}

	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	rel, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}

	u := *base
	basePath := strings.TrimRight(base.Path, "/")
	if basePath != "" && (rel.Path == basePath || strings.HasPrefix(rel.Path, basePath+"/")) {
		u.Path = rel.Path
	} else {
		u.Path = basePath + rel.Path
	}
	u.RawPath = ""
	u.RawQuery = rel.RawQuery
	u.Fragment = ""
	return &u, nil
}

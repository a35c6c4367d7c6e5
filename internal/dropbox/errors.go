// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dropbox

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed export.
type ErrorKind string

const (
	KindAuth        ErrorKind = "auth"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimited ErrorKind = "rate_limited"
	KindNetwork     ErrorKind = "network"
	KindMalformed   ErrorKind = "malformed"
	KindUnsupported ErrorKind = "unsupported"
	KindOther       ErrorKind = "other"
)

// ServiceError is the only error type Export returns. It hides the shape of
// Dropbox responses from the rest of the program.
type ServiceError struct {
	Kind ErrorKind
	// Path is the remote path that was requested.
	Path string
	// Status is the HTTP status code, zero for transport errors.
	Status int
	// Summary is Dropbox's error_summary or a short description.
	Summary string
	Err     error
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dropbox export of %s failed (%s", e.Path, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, ", HTTP %d", e.Status)
	}
	b.WriteString(")")
	if e.Summary != "" {
		b.WriteString(": ")
		b.WriteString(e.Summary)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// apiError is the JSON body Dropbox returns alongside 4xx responses.
type apiError struct {
	ErrorSummary string `json:"error_summary"`
}

// classify maps an HTTP status and Dropbox error_summary to a kind.
func classify(status int, summary string) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindNetwork
	case status == http.StatusConflict:
		switch {
		case strings.HasPrefix(summary, "path/not_found"):
			return KindNotFound
		case strings.Contains(summary, "non_exportable"),
			strings.Contains(summary, "invalid_export_format"):
			return KindUnsupported
		}
	}
	return KindOther
}

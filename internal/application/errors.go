package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var ErrNotFound = errors.New("not found")
var ErrBadRequest = errors.New("bad request")

// ErrCycleFailed marks a refresh cycle that produced no snapshot.
var ErrCycleFailed = errors.New("refresh cycle failed")

// ErrNoSnapshot is returned when nothing has been published yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// Source names one of the cycle's upstream data sources.
type Source string

const (
	SourceDomestic Source = "domestic"
	SourceForeign  Source = "foreign"
	SourceRate     Source = "rate"
	SourceStatus   Source = "status"
)

// FailureKind classifies why a source failed.
type FailureKind string

const (
	FailureUnavailable FailureKind = "unavailable"
	FailureTimeout     FailureKind = "timeout"
	FailureMalformed   FailureKind = "malformed"
	// FailureUnauthorized is an upstream 401 or 403.
	FailureUnauthorized FailureKind = "unauthorized"
)

// SourceError is a classified failure of one upstream source.
type SourceError struct {
	Source Source
	Kind   FailureKind
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source %s: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError wraps err and classifies it.
func NewSourceError(src Source, err error) *SourceError {
	return &SourceError{Source: src, Kind: classify(err), Err: err}
}

// ErrMalformed marks a payload that could not be interpreted.
var ErrMalformed = errors.New("malformed payload")

func classify(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, ErrMalformed) {
		return FailureMalformed
	}
	var hs interface{ HTTPStatus() int }
	if errors.As(err, &hs) {
		switch hs.HTTPStatus() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return FailureUnauthorized
		}
	}
	return FailureUnavailable
}

// Package client defines the interface to remote nikud annotation services.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Annotator adds nikud to Hebrew text.
type Annotator interface {
	// Annotate returns text with vowel pointing applied for the given genre.
	// Failures are reported as *ServiceError.
	Annotate(ctx context.Context, text, genre string) (string, error)
}

// ErrorKind classifies a ServiceError.
type ErrorKind string

const (
	// KindNetwork covers transport failures and unexpected HTTP statuses.
	KindNetwork ErrorKind = "network"

	// KindTimeout indicates the call did not finish in time.
	KindTimeout ErrorKind = "timeout"

	// KindMalformedResponse indicates the service replied with data that
	// could not be turned into annotated text.
	KindMalformedResponse ErrorKind = "malformed_response"
)

// ServiceError describes a failed annotation call.
type ServiceError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nikud service %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("nikud service %s: %s", e.Kind, e.Detail)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a ServiceError of the given kind.
func NewServiceError(kind ErrorKind, detail string, err error) *ServiceError {
	return &ServiceError{Kind: kind, Detail: detail, Err: err}
}

// AsServiceError converts err into a *ServiceError. Deadline and network
// timeout errors become KindTimeout; any other unclassified error becomes
// KindNetwork.
func AsServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return NewServiceError(KindTimeout, "request timed out", err)
	}
	return NewServiceError(KindNetwork, "request failed", err)
}

package policeapi

import (
	stderrs "errors"
	"fmt"
	"net/http"

	perr "stopsearch/internal/platform/errors"
)

// Kind classifies an APIError
type Kind string

// Kind values
const (
	KindStatus    Kind = "status"
	KindTransport Kind = "transport"
	KindDecode    Kind = "decode"
	KindBreaker   Kind = "breaker"
)

// APIError is the only error type the client returns for upstream failures
type APIError struct {
	Op       string
	Kind     Kind
	Status   int // 0 unless an HTTP response was read
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("policeapi %s: %s %d after %d attempt(s): %v", e.Op, e.Kind, e.Status, e.Attempts, e.Err)
	}
	return fmt.Sprintf("policeapi %s: %s after %d attempt(s): %v", e.Op, e.Kind, e.Attempts, e.Err)
}

// Unwrap exposes the classified cause so perr.CodeOf works on APIError
func (e *APIError) Unwrap() error { return e.Err }

// HTTPStatus returns the upstream status, if any
func (e *APIError) HTTPStatus() int { return e.Status }

func newAPIError(op string, kind Kind, status, attempts int, cause error) *APIError {
	code := perr.ErrorCodeUpstream
	switch {
	case kind == KindDecode:
		code = perr.ErrorCodeJSON
	case kind == KindTransport, kind == KindBreaker:
		code = perr.ErrorCodeUnavailable
	case status == http.StatusTooManyRequests:
		code = perr.ErrorCodeTooManyRequests
	}
	return &APIError{
		Op:       op,
		Kind:     kind,
		Status:   status,
		Attempts: attempts,
		Err:      perr.Wrap(cause, code, string(kind)),
	}
}

// AsAPIError unwraps err into an *APIError
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if stderrs.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// retryableStatus reports whether the status is worth another attempt
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// countsAsSuccess keeps client side mistakes from tripping the breaker
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	ae, ok := AsAPIError(err)
	if !ok {
		return false
	}
	return ae.Kind == KindStatus && ae.Status >= 400 && ae.Status < 500 && ae.Status != http.StatusTooManyRequests
}

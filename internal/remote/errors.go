package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/inqbatorchris/fieldsync/internal/common"
)

// StatusError is a non-2xx response from the remote API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Body)
}

// IsPermanent reports a definite client error (4xx): the request is wrong
// and retrying it cannot help. Requires human correction.
func IsPermanent(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500
}

// IsTransient reports a failure worth retrying with the same idempotency
// token: a 5xx, a timeout (ambiguous — the request may have landed), or a
// transport error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}

// IsUnavailable reports that connectivity itself is down: the drain should
// abort and resume on the next connectivity event instead of burning the
// retry budget.
func IsUnavailable(err error) bool {
	return errors.Is(err, common.ErrorUnavailable)
}

// classifyTransport wraps a transport-level error. Connection failures mean
// connectivity is down; timeouts are ambiguous — the request may have been
// applied — so they stay retryable but do not abort the drain.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("request timed out: %w", err)
	}
	return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
}

func statusError(resp *http.Response, body []byte) error {
	return &StatusError{Code: resp.StatusCode, Body: string(body)}
}

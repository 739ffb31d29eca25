package paypal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
)

var (
	// ErrTimeout marks a call that hit its deadline. Safe to retry.
	ErrTimeout = errors.New("paypal: request timed out")
	// ErrUnavailable marks a transport failure before any response.
	ErrUnavailable = errors.New("paypal: service unreachable")
)

// APIError is an explicit rejection returned by the provider.
type APIError struct {
	StatusCode int    `json:"-"`
	Name       string `json:"name"`
	Message    string `json:"message"`
	DebugID    string `json:"debug_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: %d %s: %s (debug_id=%s)", e.StatusCode, e.Name, e.Message, e.DebugID)
}

// IsRetryable reports whether err is a timeout, a transport failure, a
// rate limit or a provider-side 5xx.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		apiErr := &APIError{Name: retrieveErr.ErrorCode, Message: retrieveErr.ErrorDescription}
		if retrieveErr.Response != nil {
			apiErr.StatusCode = retrieveErr.Response.StatusCode
		}
		if apiErr.Name == "" {
			apiErr.Name = "AUTHENTICATION_FAILURE"
		}
		return apiErr
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

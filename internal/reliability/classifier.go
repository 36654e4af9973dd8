package reliability

import (
	"context"
	"errors"
	"net"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsRetryableError reports whether a failed upstream call is worth retrying
// by the client: timeouts and transient network failures are, cancellations
// are not. The service itself never retries; this only labels failures.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Classify combines the status and error checks. status is 0 when no HTTP
// response was received.
func Classify(status int, err error) bool {
	if status != 0 {
		return IsRetryableHTTPStatus(status)
	}
	return IsRetryableError(err)
}

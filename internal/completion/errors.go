package completion

import "fmt"

type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindProvider      Kind = "provider"
)

// Error is returned by Gateway.Complete. Message is safe to show to the user.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("completion: %s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("completion: %s error: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newConfigError(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

func newProviderError(err error, status int, retryable bool) *Error {
	return &Error{
		Kind:       KindProvider,
		Message:    err.Error(),
		StatusCode: status,
		Retryable:  retryable,
		Err:        err,
	}
}

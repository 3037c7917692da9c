package mailer

import "errors"

// Sentinel errors for email delivery.
var (
	// ErrDeliveryFailed means every configured provider was tried and
	// none accepted the message.
	ErrDeliveryFailed = errors.New("all email providers failed")

	// ErrTemplateNotFound means the template key is not registered.
	ErrTemplateNotFound = errors.New("email template not found")

	// ErrProviderUnconfigured means a provider is missing required
	// credentials and cannot attempt delivery.
	ErrProviderUnconfigured = errors.New("email provider not configured")
)

// retriableError marks a delivery failure worth retrying against the
// same provider (network faults, rate limits, upstream 5xx).
type retriableError struct {
	err error
}

func (e *retriableError) Error() string { return e.err.Error() }
func (e *retriableError) Unwrap() error { return e.err }

// Retriable wraps err so IsRetriable reports true for it.
func Retriable(err error) error {
	if err == nil {
		return nil
	}
	return &retriableError{err: err}
}

// IsRetriable reports whether a provider failure should be retried
// before falling back to the next provider.
func IsRetriable(err error) bool {
	var re *retriableError
	return errors.As(err, &re)
}

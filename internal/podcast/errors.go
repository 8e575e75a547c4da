package podcast

import (
	"errors"

	"briefcaster/internal/models"
)

// Failure tags returned by Service. Test with errors.Is.
var (
	ErrNotFound         = models.ErrNotFound
	ErrInvalidInput     = errors.New("invalid input")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrGenerationFailed = errors.New("generation failed")
	ErrBusy             = errors.New("generation already in progress")
)

// reasonError attaches a human-readable reason to one of the failure tags.
type reasonError struct {
	kind   error
	reason string
}

func (e *reasonError) Error() string { return e.reason }
func (e *reasonError) Unwrap() error { return e.kind }

func invalidInput(reason string) error {
	return &reasonError{kind: ErrInvalidInput, reason: reason}
}

func quotaExceeded(reason string) error {
	return &reasonError{kind: ErrQuotaExceeded, reason: reason}
}

// Reason returns the reason attached to err, or err's message.
func Reason(err error) string {
	var re *reasonError
	if errors.As(err, &re) {
		return re.reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Kind returns the machine-readable tag of err, or "internal" for untagged errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "internal"
	}
}

package whitelist

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSessionActive     = errors.New("whitelist: questionnaire already in progress")
	ErrSessionCorrupted  = errors.New("whitelist: session out of sync with question list")
	ErrDeliveryFailed    = errors.New("whitelist: could not reach applicant")
	ErrReviewUnavailable = errors.New("whitelist: could not post to review surface")
	ErrNoPermission      = errors.New("whitelist: moderation capability required")
	ErrApplicantNotFound = errors.New("whitelist: applicant not in community")
	ErrAlreadyDecided    = errors.New("whitelist: application already decided")
)

// CooldownError refuses an entry attempt made before the cooldown window
// elapsed.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("whitelist: in cooldown for %s", e.Remaining)
}

// FormError reports a form submission that failed boundary validation.
type FormError struct {
	Field  string
	Reason string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("whitelist: form field %q: %s", e.Field, e.Reason)
}

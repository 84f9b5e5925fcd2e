package whitelist

import "time"

// Source identifies which entry path produced an application.
type Source string

const (
	SourceDM   Source = "DM"
	SourceForm Source = "FORM"
)

// Question is one entry of the ordered questionnaire.
type Question struct {
	Key    string
	Prompt string
}

// Application is a completed answer set ready for staff review.
type Application struct {
	ID        string
	Applicant int64
	Answers   map[string]string
	Source    Source
}

// ArtifactRef locates the staff review message for an application.
type ArtifactRef struct {
	ChatID    int64
	MessageID int
}

// Messenger delivers plain-text private messages to applicants.
type Messenger interface {
	SendDM(userID int64, text string) error
}

// ReviewBoard posts applications to the staff surface and records decisions
// on the posted artifact.
type ReviewBoard interface {
	PostApplication(app Application) (ArtifactRef, error)
	MarkApproved(ref ArtifactRef, applicantID int64, moderator string) error
	MarkRejected(ref ArtifactRef, applicantID int64, moderator string, reason string) error
}

// Memberships answers capability and membership questions about the
// community and applies the approved/provisional designations.
type Memberships interface {
	IsModerator(userID int64) (bool, error)
	Exists(userID int64) (bool, error)
	HasApproved(userID int64) (bool, error)
	GrantApproved(userID int64) error
	RevokeProvisional(userID int64) error
}

// Notifier emits decision records to the notification surfaces.
type Notifier interface {
	DecisionApproved(applicantID int64, moderator string) error
	DecisionRejected(applicantID int64, moderator string, reason string) error
}

// CooldownGate limits how often an applicant may submit.
type CooldownGate interface {
	Record(userID int64)
	InCooldown(userID int64) bool
	Remaining(userID int64) time.Duration
}

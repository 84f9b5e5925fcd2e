package whitelist

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/AlekSi/pointer"
)

const defaultRejectReason = "Sem motivo informado"

const (
	approvedDMText = "🎉 Você foi APROVADO na whitelist!"
	rejectedDMText = "Sua whitelist foi REPROVADA.\nMotivo: %s"
)

// DecisionHandler processes moderator actions on a review artifact. It keeps
// no state between the reject initiation and its finalization: the applicant
// id and artifact ref travel inside the reason prompt's own identifier.
type DecisionHandler struct {
	members   Memberships
	board     ReviewBoard
	messenger Messenger
	notifier  Notifier
	log       *slog.Logger
}

func NewDecisionHandler(
	members Memberships,
	board ReviewBoard,
	messenger Messenger,
	notifier Notifier,
	log *slog.Logger,
) *DecisionHandler {
	return &DecisionHandler{
		members:   members,
		board:     board,
		messenger: messenger,
		notifier:  notifier,
		log:       log,
	}
}

// Approve grants the approved designation, revokes the provisional one,
// marks the artifact decided and notifies applicant and staff. A second
// approval of the same applicant is refused with ErrAlreadyDecided.
func (d *DecisionHandler) Approve(actorID int64, actorName string, applicantID int64, ref ArtifactRef) error {
	if err := d.authorize(actorID); err != nil {
		return err
	}

	exists, err := d.members.Exists(applicantID)
	if err != nil {
		return fmt.Errorf("decision.Approve: %w", err)
	}
	if !exists {
		return ErrApplicantNotFound
	}

	approved, err := d.members.HasApproved(applicantID)
	if err != nil {
		return fmt.Errorf("decision.Approve: %w", err)
	}
	if approved {
		return ErrAlreadyDecided
	}

	if err := d.members.GrantApproved(applicantID); err != nil {
		return fmt.Errorf("decision.Approve: grant: %w", err)
	}

	if err := d.members.RevokeProvisional(applicantID); err != nil {
		d.log.Warn("could not revoke provisional designation", "user_id", applicantID, "error", err)
	}

	if err := d.board.MarkApproved(ref, applicantID, actorName); err != nil {
		d.log.Warn("could not update review artifact", "message_id", ref.MessageID, "error", err)
	}

	if err := d.messenger.SendDM(applicantID, approvedDMText); err != nil {
		d.log.Warn("could not notify approved applicant", "user_id", applicantID, "error", err)
	}

	if err := d.notifier.DecisionApproved(applicantID, actorName); err != nil {
		d.log.Warn("could not emit approval record", "user_id", applicantID, "error", err)
	}

	d.log.Info("application approved", "user_id", applicantID, "moderator", actorName)

	return nil
}

// BeginReject validates that the actor may reject the applicant. The
// decision is not final: the caller opens the reason-capture step and later
// calls FinalizeReject with the collected reason.
func (d *DecisionHandler) BeginReject(actorID int64, applicantID int64) error {
	if err := d.authorize(actorID); err != nil {
		return err
	}

	exists, err := d.members.Exists(applicantID)
	if err != nil {
		return fmt.Errorf("decision.BeginReject: %w", err)
	}
	if !exists {
		return ErrApplicantNotFound
	}

	return nil
}

// FinalizeReject consumes the captured reason, updates the artifact and
// notifies applicant and staff. A blank reason falls back to a placeholder.
func (d *DecisionHandler) FinalizeReject(actorID int64, actorName string, applicantID int64, ref ArtifactRef, reason *string) error {
	if err := d.authorize(actorID); err != nil {
		return err
	}

	text := strings.TrimSpace(pointer.GetString(reason))
	if text == "" {
		text = defaultRejectReason
	}

	if err := d.board.MarkRejected(ref, applicantID, actorName, text); err != nil {
		d.log.Warn("could not update review artifact", "message_id", ref.MessageID, "error", err)
	}

	if err := d.messenger.SendDM(applicantID, fmt.Sprintf(rejectedDMText, text)); err != nil {
		d.log.Warn("could not notify rejected applicant", "user_id", applicantID, "error", err)
	}

	if err := d.notifier.DecisionRejected(applicantID, actorName, text); err != nil {
		d.log.Warn("could not emit rejection record", "user_id", applicantID, "error", err)
	}

	d.log.Info("application rejected", "user_id", applicantID, "moderator", actorName, "reason", text)

	return nil
}

func (d *DecisionHandler) authorize(actorID int64) error {
	ok, err := d.members.IsModerator(actorID)
	if err != nil {
		return fmt.Errorf("decision: moderator check: %w", err)
	}
	if !ok {
		return ErrNoPermission
	}

	return nil
}

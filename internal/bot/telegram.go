package bot

import (
	"encoding/json"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Samurai33/Bot-Whitelist/internal/whitelist"
)

// Messenger delivers plain-text DMs. In Telegram a DM is a message to the
// applicant's private chat, which shares the user's id.
type Messenger struct {
	api *tgbotapi.BotAPI
}

func NewMessenger(api *tgbotapi.BotAPI) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) SendDM(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := m.api.Send(msg); err != nil {
		return fmt.Errorf("messenger.SendDM: %w", err)
	}

	return nil
}

// ReviewBoard posts applications into the staff chat with approve/reject
// buttons and records decisions on the posted message.
type ReviewBoard struct {
	api         *tgbotapi.BotAPI
	staffChatID int64
	questions   []whitelist.Question
}

func NewReviewBoard(api *tgbotapi.BotAPI, staffChatID int64, questions []whitelist.Question) *ReviewBoard {
	return &ReviewBoard{
		api:         api,
		staffChatID: staffChatID,
		questions:   questions,
	}
}

func (r *ReviewBoard) PostApplication(app whitelist.Application) (whitelist.ArtifactRef, error) {
	msg := tgbotapi.NewMessage(r.staffChatID, buildApplicationText(app, r.questions))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = decisionKeyboard(app.Applicant)

	sent, err := r.api.Send(msg)
	if err != nil {
		return whitelist.ArtifactRef{}, fmt.Errorf("reviewboard.PostApplication: %w", err)
	}

	return whitelist.ArtifactRef{ChatID: r.staffChatID, MessageID: sent.MessageID}, nil
}

func (r *ReviewBoard) MarkApproved(ref whitelist.ArtifactRef, applicantID int64, moderator string) error {
	text := fmt.Sprintf("✅ <b>Whitelist aprovada</b>\nCandidato: %s\nRevisor: <b>%s</b>",
		mention(applicantID), escape(moderator))

	return r.mark(ref, text)
}

func (r *ReviewBoard) MarkRejected(ref whitelist.ArtifactRef, applicantID int64, moderator string, reason string) error {
	text := fmt.Sprintf("❌ <b>Whitelist reprovada</b>\nCandidato: %s\nRevisor: <b>%s</b>\nMotivo: %s",
		mention(applicantID), escape(moderator), escape(reason))

	return r.mark(ref, text)
}

// mark strips the artifact's buttons and posts the decision as a reply to
// it. The reply goes out even when the artifact was deleted; the failed edit
// is reported to the caller.
func (r *ReviewBoard) mark(ref whitelist.ArtifactRef, text string) error {
	var editErr error
	edit := tgbotapi.NewEditMessageReplyMarkup(ref.ChatID, ref.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := r.api.Request(edit); err != nil {
		editErr = fmt.Errorf("reviewboard: clear buttons: %w", err)
	}

	msg := tgbotapi.NewMessage(ref.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = ref.MessageID
	msg.AllowSendingWithoutReply = true
	if _, err := r.api.Send(msg); err != nil {
		return fmt.Errorf("reviewboard: post decision: %w", err)
	}

	return editErr
}

// Memberships maps the designations onto Telegram chats: moderation
// capability is admin status in the staff chat, the approved designation is
// membership of the members chat (granted with a single-use invite link) and
// the provisional designation is presence in the visitors chat.
type Memberships struct {
	api            *tgbotapi.BotAPI
	staffChatID    int64
	membersChatID  int64
	visitorsChatID int64
}

func NewMemberships(api *tgbotapi.BotAPI, staffChatID, membersChatID, visitorsChatID int64) *Memberships {
	return &Memberships{
		api:            api,
		staffChatID:    staffChatID,
		membersChatID:  membersChatID,
		visitorsChatID: visitorsChatID,
	}
}

func (m *Memberships) IsModerator(userID int64) (bool, error) {
	member, err := m.chatMember(m.staffChatID, userID)
	if err != nil {
		return false, nil
	}

	return member.Status == "administrator" || member.Status == "creator", nil
}

func (m *Memberships) Exists(userID int64) (bool, error) {
	chatID := m.visitorsChatID
	if chatID == 0 {
		chatID = m.staffChatID
	}

	member, err := m.chatMember(chatID, userID)
	if err != nil {
		return false, nil
	}

	return member.Status != "left" && member.Status != "kicked", nil
}

func (m *Memberships) HasApproved(userID int64) (bool, error) {
	member, err := m.chatMember(m.membersChatID, userID)
	if err != nil {
		return false, nil
	}

	switch member.Status {
	case "member", "administrator", "creator":
		return true, nil
	}

	return false, nil
}

// GrantApproved sends the applicant a single-use invite link into the
// members chat.
func (m *Memberships) GrantApproved(userID int64) error {
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: m.membersChatID},
		MemberLimit: 1,
	}

	resp, err := m.api.Request(cfg)
	if err != nil {
		return fmt.Errorf("memberships.GrantApproved: create invite link: %w", err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return fmt.Errorf("memberships.GrantApproved: decode invite link: %w", err)
	}

	msg := tgbotapi.NewMessage(userID, "Seu acesso ao grupo de membros: "+link.InviteLink)
	if _, err := m.api.Send(msg); err != nil {
		return fmt.Errorf("memberships.GrantApproved: deliver invite link: %w", err)
	}

	return nil
}

// RevokeProvisional removes the applicant from the visitors chat. A zero
// visitors chat id disables the provisional designation.
func (m *Memberships) RevokeProvisional(userID int64) error {
	if m.visitorsChatID == 0 {
		return nil
	}

	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: m.visitorsChatID, UserID: userID},
	}
	if _, err := m.api.Request(ban); err != nil {
		return fmt.Errorf("memberships.RevokeProvisional: %w", err)
	}

	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: m.visitorsChatID, UserID: userID},
		OnlyIfBanned:     true,
	}
	if _, err := m.api.Request(unban); err != nil {
		return fmt.Errorf("memberships.RevokeProvisional: unban: %w", err)
	}

	return nil
}

func (m *Memberships) chatMember(chatID, userID int64) (tgbotapi.ChatMember, error) {
	return m.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
}

// Notifier emits decision summaries to the approved/rejected notify chats.
// An unconfigured chat only produces a log line.
type Notifier struct {
	api            *tgbotapi.BotAPI
	approvedChatID int64
	rejectedChatID int64
	log            *slog.Logger
}

func NewNotifier(api *tgbotapi.BotAPI, approvedChatID, rejectedChatID int64, log *slog.Logger) *Notifier {
	return &Notifier{
		api:            api,
		approvedChatID: approvedChatID,
		rejectedChatID: rejectedChatID,
		log:            log,
	}
}

func (n *Notifier) DecisionApproved(applicantID int64, moderator string) error {
	text := fmt.Sprintf("✅ <b>Whitelist Aprovada</b>\nCandidato: %s\nRevisor: <b>%s</b>",
		mention(applicantID), escape(moderator))

	return n.send(n.approvedChatID, "aprovados", text)
}

func (n *Notifier) DecisionRejected(applicantID int64, moderator string, reason string) error {
	text := fmt.Sprintf("❌ <b>Whitelist Reprovada</b>\nCandidato: %s\nRevisor: <b>%s</b>\nMotivo: %s",
		mention(applicantID), escape(moderator), escape(reason))

	return n.send(n.rejectedChatID, "reprovados", text)
}

func (n *Notifier) send(chatID int64, label string, text string) error {
	if chatID == 0 {
		n.log.Warn("notify chat not configured", "label", label)
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("notifier: send to %s: %w", label, err)
	}

	return nil
}

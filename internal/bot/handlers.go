package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AlekSi/pointer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Samurai33/Bot-Whitelist/internal/config"
	"github.com/Samurai33/Bot-Whitelist/internal/whitelist"
)

const formMarker = "📋 Formulário de whitelist"

const (
	welcomeText = "Olá! Para entrar na whitelist use /whitelist (perguntas uma a uma, no privado) ou /whitelist_form (formulário único)."
	genericText = "Ocorreu um erro ao processar sua solicitação. A equipe já foi notificada."
)

// BotService wires Telegram updates into the questionnaire engine and the
// decision handler.
type BotService struct {
	api       *tgbotapi.BotAPI
	engine    *whitelist.Engine
	decisions *whitelist.DecisionHandler
	schema    *whitelist.FormSchema
	cfg       *config.Config
	log       *slog.Logger
}

func New(
	api *tgbotapi.BotAPI,
	engine *whitelist.Engine,
	decisions *whitelist.DecisionHandler,
	schema *whitelist.FormSchema,
	cfg *config.Config,
	log *slog.Logger,
) *BotService {
	return &BotService{
		api:       api,
		engine:    engine,
		decisions: decisions,
		schema:    schema,
		cfg:       cfg,
		log:       log,
	}
}

func (b *BotService) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if err := b.route(update); err != nil {
			b.log.Error("update handling failed", "error", err)
			b.apologize(update)
		}
	}
}

func (b *BotService) route(update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(update.Message)
	}

	return nil
}

func (b *BotService) handleMessage(msg *tgbotapi.Message) error {
	if msg.From == nil || msg.From.IsBot {
		return nil
	}

	if msg.IsCommand() {
		return b.handleCommand(msg)
	}

	if msg.Chat.ID == b.cfg.StaffChatID {
		return b.handleStaffReply(msg)
	}

	if !msg.Chat.IsPrivate() {
		return nil
	}

	if b.isFormReply(msg) {
		return b.handleFormReply(msg)
	}

	if _, err := b.engine.HandleAnswer(msg.From.ID, msg.Text); err != nil {
		// The engine already cleaned up and told the applicant what it could.
		b.log.Warn("questionnaire step failed", "user_id", msg.From.ID, "error", err)
	}

	return nil
}

func (b *BotService) handleCommand(msg *tgbotapi.Message) error {
	if !msg.Chat.IsPrivate() && !b.isCommunityChat(msg.Chat.ID) && msg.Chat.ID != b.cfg.StaffChatID {
		return nil
	}

	switch msg.Command() {
	case "start":
		return b.reply(msg, welcomeText)
	case "whitelist":
		return b.handleWhitelistCommand(msg)
	case "whitelist_form":
		return b.handleFormCommand(msg)
	}

	return nil
}

func (b *BotService) handleWhitelistCommand(msg *tgbotapi.Message) error {
	err := b.engine.Start(msg.From.ID, msg.Chat.ID)

	var cooldown *whitelist.CooldownError
	switch {
	case errors.As(err, &cooldown):
		return b.reply(msg, fmt.Sprintf("⏳ Aguarde %d min para tentar novamente.", ceilMinutes(cooldown.Remaining)))
	case errors.Is(err, whitelist.ErrSessionActive):
		return b.reply(msg, "⚠️ Você já tem uma whitelist em andamento. Verifique sua conversa privada ou envie \"cancelar\".")
	case errors.Is(err, whitelist.ErrDeliveryFailed):
		return b.reply(msg, "❌ Não consegui te chamar no privado. Inicie uma conversa comigo e tente novamente, ou use /whitelist_form.")
	case err != nil:
		return fmt.Errorf("bot: start questionnaire: %w", err)
	}

	if !msg.Chat.IsPrivate() {
		return b.reply(msg, "Te chamei no privado. Responda por lá ✅")
	}

	return nil
}

func (b *BotService) handleFormCommand(msg *tgbotapi.Message) error {
	if !msg.Chat.IsPrivate() {
		return b.reply(msg, "Use este comando na conversa privada comigo.")
	}

	if remaining, in := b.engine.Cooldown(msg.From.ID); in {
		return b.reply(msg, fmt.Sprintf("⏳ Aguarde %d min para tentar novamente.", ceilMinutes(remaining)))
	}

	if b.engine.InProgress(msg.From.ID) {
		return b.reply(msg, "⚠️ Você já tem uma whitelist em andamento. Envie \"cancelar\" antes de usar o formulário.")
	}

	form := tgbotapi.NewMessage(msg.Chat.ID, b.formText())
	form.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true}
	if _, err := b.api.Send(form); err != nil {
		return fmt.Errorf("bot: send form template: %w", err)
	}

	return nil
}

func (b *BotService) handleFormReply(msg *tgbotapi.Message) error {
	values := b.schema.Parse(msg.Text)
	if err := b.schema.Validate(values); err != nil {
		var formErr *whitelist.FormError
		if errors.As(err, &formErr) {
			return b.reply(msg, fmt.Sprintf("⚠️ Campo \"%s\": %s. Corrija e envie o formulário novamente.", formErr.Field, formErr.Reason))
		}
		return fmt.Errorf("bot: validate form: %w", err)
	}

	err := b.engine.SubmitForm(msg.From.ID, values)

	var cooldown *whitelist.CooldownError
	switch {
	case errors.As(err, &cooldown):
		return b.reply(msg, fmt.Sprintf("⏳ Aguarde %d min para tentar novamente.", ceilMinutes(cooldown.Remaining)))
	case errors.Is(err, whitelist.ErrSessionActive):
		return b.reply(msg, "⚠️ Você já tem uma whitelist em andamento. Envie \"cancelar\" antes de usar o formulário.")
	case errors.Is(err, whitelist.ErrReviewUnavailable):
		return b.reply(msg, "⚠️ Suas respostas foram coletadas, mas não consegui postar no canal da staff. Avise um administrador.")
	case err != nil:
		return fmt.Errorf("bot: submit form: %w", err)
	}

	return b.reply(msg, "✅ Sua whitelist foi enviada para revisão!")
}

func (b *BotService) handleCallback(cb *tgbotapi.CallbackQuery) error {
	applicantID, action, ok := parseDecisionCallback(cb.Data)
	if !ok || cb.Message == nil {
		return b.answerCallback(cb.ID, "")
	}

	ref := whitelist.ArtifactRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID}

	switch action {
	case actionApprove:
		err := b.decisions.Approve(cb.From.ID, displayName(cb.From), applicantID, ref)
		if notice, refused := refusalNotice(err); refused {
			return b.answerCallback(cb.ID, notice)
		}
		if err != nil {
			return fmt.Errorf("bot: approve: %w", err)
		}
		return b.answerCallback(cb.ID, "✅ Aprovado")

	case actionReject:
		err := b.decisions.BeginReject(cb.From.ID, applicantID)
		if notice, refused := refusalNotice(err); refused {
			return b.answerCallback(cb.ID, notice)
		}
		if err != nil {
			return fmt.Errorf("bot: begin reject: %w", err)
		}

		prompt := tgbotapi.NewMessage(cb.Message.Chat.ID,
			"Responda esta mensagem com o motivo da reprovação.\n\n"+rejectTag(applicantID, cb.Message.MessageID))
		prompt.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true}
		if _, err := b.api.Send(prompt); err != nil {
			return fmt.Errorf("bot: send reject prompt: %w", err)
		}

		return b.answerCallback(cb.ID, "Informe o motivo.")
	}

	return b.answerCallback(cb.ID, "")
}

// handleStaffReply finalizes a rejection: the moderator replied to the tagged
// reason prompt, whose text carries the applicant id and the artifact's
// message id.
func (b *BotService) handleStaffReply(msg *tgbotapi.Message) error {
	replied := msg.ReplyToMessage
	if replied == nil || replied.From == nil || replied.From.ID != b.api.Self.ID {
		return nil
	}

	applicantID, messageID, ok := parseRejectTag(replied.Text)
	if !ok {
		return nil
	}

	ref := whitelist.ArtifactRef{ChatID: msg.Chat.ID, MessageID: messageID}
	err := b.decisions.FinalizeReject(msg.From.ID, displayName(msg.From), applicantID, ref, pointer.ToString(msg.Text))
	if notice, refused := refusalNotice(err); refused {
		return b.reply(msg, notice)
	}
	if err != nil {
		return fmt.Errorf("bot: finalize reject: %w", err)
	}

	return b.reply(msg, "❌ Reprovação registrada e notificada.")
}

func (b *BotService) isFormReply(msg *tgbotapi.Message) bool {
	replied := msg.ReplyToMessage

	return replied != nil &&
		replied.From != nil &&
		replied.From.ID == b.api.Self.ID &&
		strings.HasPrefix(replied.Text, formMarker)
}

func (b *BotService) isCommunityChat(chatID int64) bool {
	return b.cfg.CommunityChatID == 0 || chatID == b.cfg.CommunityChatID
}

func (b *BotService) formText() string {
	var sb strings.Builder
	sb.WriteString(formMarker)
	sb.WriteString("\n\n")

	for i, field := range b.schema.Fields() {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, field.Label, field.Key)
	}

	sb.WriteString("\nCopie o modelo abaixo, preencha cada campo e envie como resposta a esta mensagem:\n\n")
	sb.WriteString(b.schema.Template())

	return sb.String()
}

func (b *BotService) reply(msg *tgbotapi.Message, text string) error {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	m.ReplyToMessageID = msg.MessageID
	m.AllowSendingWithoutReply = true

	if _, err := b.api.Send(m); err != nil {
		return fmt.Errorf("bot: reply: %w", err)
	}

	return nil
}

func (b *BotService) answerCallback(callbackID string, text string) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("bot: answer callback: %w", err)
	}

	return nil
}

func (b *BotService) apologize(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.answerCallback(update.CallbackQuery.ID, genericText); err != nil {
			b.log.Warn("could not answer callback with apology", "error", err)
		}
	case update.Message != nil:
		if err := b.reply(update.Message, genericText); err != nil {
			b.log.Warn("could not send apology", "error", err)
		}
	}
}

// refusalNotice maps a refused decision action to its ephemeral notice.
func refusalNotice(err error) (string, bool) {
	switch {
	case errors.Is(err, whitelist.ErrNoPermission):
		return "Sem permissão.", true
	case errors.Is(err, whitelist.ErrApplicantNotFound):
		return "Candidato não está mais na comunidade.", true
	case errors.Is(err, whitelist.ErrAlreadyDecided):
		return "Este pedido já foi decidido.", true
	}

	return "", false
}

func ceilMinutes(d time.Duration) int64 {
	minutes := int64(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}

	return minutes
}

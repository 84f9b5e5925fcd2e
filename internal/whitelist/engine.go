package whitelist

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Samurai33/Bot-Whitelist/internal/store"
)

const cancelKeyword = "cancelar"

const (
	introText          = "Olá! Vamos iniciar sua whitelist. Responda cada pergunta em uma mensagem. Para cancelar, envie \"cancelar\"."
	answerRecordedText = "✅ Resposta registrada."
	cancelledText      = "❌ Whitelist cancelada. Use /whitelist para recomeçar."
	sessionErrorText   = "Erro de sessão. Reinicie com /whitelist."
	timeoutText        = "⏰ Tempo esgotado para responder. Use /whitelist novamente para recomeçar."
	receiptText        = "✅ Recebemos suas respostas. A staff irá revisar."
	notPostedText      = "⚠️ Suas respostas foram coletadas, mas não consegui postar no canal da staff. Avise um administrador."
)

// Engine drives the sequential DM questionnaire and the one-shot form path,
// handing completed answer sets to the review board.
type Engine struct {
	questions []Question
	sessions  *store.SessionStore
	cooldowns CooldownGate
	messenger Messenger
	board     ReviewBoard
	timeout   time.Duration
	log       *slog.Logger
}

func NewEngine(
	questions []Question,
	sessions *store.SessionStore,
	cooldowns CooldownGate,
	messenger Messenger,
	board ReviewBoard,
	timeout time.Duration,
	log *slog.Logger,
) *Engine {
	return &Engine{
		questions: questions,
		sessions:  sessions,
		cooldowns: cooldowns,
		messenger: messenger,
		board:     board,
		timeout:   timeout,
		log:       log,
	}
}

// InProgress reports whether the applicant has a live DM session.
func (e *Engine) InProgress(userID int64) bool {
	return e.sessions.Has(userID)
}

// Cooldown returns the time left before the applicant may apply again.
func (e *Engine) Cooldown(userID int64) (time.Duration, bool) {
	if !e.cooldowns.InCooldown(userID) {
		return 0, false
	}

	return e.cooldowns.Remaining(userID), true
}

// Start opens a DM questionnaire session for the applicant. It refuses with
// CooldownError or ErrSessionActive, and with ErrDeliveryFailed when the
// applicant cannot be messaged, in which case no session survives.
func (e *Engine) Start(userID int64, originChatID int64) error {
	if e.cooldowns.InCooldown(userID) {
		return &CooldownError{Remaining: e.cooldowns.Remaining(userID)}
	}

	if !e.sessions.Create(userID, originChatID) {
		return ErrSessionActive
	}

	if err := e.messenger.SendDM(userID, introText); err != nil {
		e.sessions.Delete(userID)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return e.askNext(userID)
}

// HandleAnswer processes a private message from the applicant. The first
// return value reports whether the message belonged to a live session.
func (e *Engine) HandleAnswer(userID int64, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	if !e.sessions.Has(userID) {
		return false, nil
	}

	if strings.EqualFold(text, cancelKeyword) {
		e.Cancel(userID)
		return true, nil
	}

	var desynced bool
	updated := e.sessions.Update(userID, func(s *store.Session) {
		if s.Step >= len(e.questions) {
			desynced = true
			return
		}

		s.Answers[e.questions[s.Step].Key] = text
		s.Step++
	})
	if !updated {
		// The expiry timer got there first.
		return false, nil
	}

	if desynced {
		e.sessions.Delete(userID)
		if err := e.messenger.SendDM(userID, sessionErrorText); err != nil {
			e.log.Warn("could not notify applicant about session error", "user_id", userID, "error", err)
		}
		return true, ErrSessionCorrupted
	}

	if err := e.messenger.SendDM(userID, answerRecordedText); err != nil {
		e.sessions.Delete(userID)
		return true, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return true, e.askNext(userID)
}

// Cancel tears down the applicant's session and confirms the cancellation.
func (e *Engine) Cancel(userID int64) bool {
	if !e.sessions.Delete(userID) {
		return false
	}

	if err := e.messenger.SendDM(userID, cancelledText); err != nil {
		e.log.Warn("could not confirm cancellation", "user_id", userID, "error", err)
	}

	return true
}

// SubmitForm processes the one-shot form path: no session is involved, the
// complete answer set goes straight to review. The caller validates the
// answers against the form schema first.
func (e *Engine) SubmitForm(userID int64, answers map[string]string) error {
	if e.sessions.Has(userID) {
		return ErrSessionActive
	}

	if e.cooldowns.InCooldown(userID) {
		return &CooldownError{Remaining: e.cooldowns.Remaining(userID)}
	}

	e.cooldowns.Record(userID)

	return e.post(userID, answers, SourceForm)
}

func (e *Engine) askNext(userID int64) error {
	var step int
	if !e.sessions.Update(userID, func(s *store.Session) { step = s.Step }) {
		return nil
	}

	if step >= len(e.questions) {
		return e.complete(userID)
	}

	q := e.questions[step]
	prompt := fmt.Sprintf("Pergunta %d/%d: %s", step+1, len(e.questions), q.Prompt)
	if err := e.messenger.SendDM(userID, prompt); err != nil {
		e.sessions.Delete(userID)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	e.sessions.ArmExpiry(userID, e.timeout, func() { e.expire(userID, step) })

	return nil
}

func (e *Engine) complete(userID int64) error {
	var answers map[string]string
	e.sessions.Update(userID, func(s *store.Session) { answers = s.Answers })
	e.sessions.Delete(userID)

	e.cooldowns.Record(userID)

	if err := e.post(userID, answers, SourceDM); err != nil {
		if notifyErr := e.messenger.SendDM(userID, notPostedText); notifyErr != nil {
			e.log.Warn("could not notify applicant about degraded handoff", "user_id", userID, "error", notifyErr)
		}
		return err
	}

	if err := e.messenger.SendDM(userID, receiptText); err != nil {
		e.log.Warn("could not send receipt", "user_id", userID, "error", err)
	}

	return nil
}

func (e *Engine) post(userID int64, answers map[string]string, source Source) error {
	app := Application{
		ID:        uuid.NewString(),
		Applicant: userID,
		Answers:   answers,
		Source:    source,
	}

	ref, err := e.board.PostApplication(app)
	if err != nil {
		e.log.Warn("review handoff failed", "user_id", userID, "source", source, "error", err)
		return fmt.Errorf("%w: %v", ErrReviewUnavailable, err)
	}

	e.log.Info("application posted for review",
		"application_id", app.ID,
		"user_id", userID,
		"source", source,
		"message_id", ref.MessageID,
	)

	return nil
}

// expire is the timer callback for a question asked at armedStep. It only
// acts when the session is still waiting on that same step.
func (e *Engine) expire(userID int64, armedStep int) {
	deleted := e.sessions.DeleteIf(userID, func(s *store.Session) bool {
		return s.Step == armedStep
	})
	if !deleted {
		return
	}

	e.log.Info("session expired", "user_id", userID, "step", armedStep)

	if err := e.messenger.SendDM(userID, timeoutText); err != nil {
		e.log.Warn("could not send timeout notice", "user_id", userID, "error", err)
	}
}

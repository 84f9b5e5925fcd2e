package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Samurai33/Bot-Whitelist/internal/whitelist"
)

const (
	callbackPrefix  = "wl"
	rejectTagPrefix = "#wl_reject"

	actionApprove = "approve"
	actionReject  = "reject"
)

func decisionKeyboard(applicantID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Aprovar", decisionCallbackData(applicantID, actionApprove)),
			tgbotapi.NewInlineKeyboardButtonData("Reprovar", decisionCallbackData(applicantID, actionReject)),
		),
	)
}

func decisionCallbackData(applicantID int64, action string) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, applicantID, action)
}

func parseDecisionCallback(data string) (applicantID int64, action string, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return 0, "", false
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, "", false
	}

	return id, parts[2], true
}

// rejectTag encodes the continuation of a rejection into the reason prompt
// itself: applicant id plus the review artifact's message id.
func rejectTag(applicantID int64, messageID int) string {
	return fmt.Sprintf("%s:%d:%d", rejectTagPrefix, applicantID, messageID)
}

func parseRejectTag(text string) (applicantID int64, messageID int, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, rejectTagPrefix+":") {
			continue
		}

		parts := strings.Split(line, ":")
		if len(parts) != 3 {
			return 0, 0, false
		}

		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, false
		}

		msgID, err := strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, false
		}

		return id, msgID, true
	}

	return 0, 0, false
}

func buildApplicationText(app whitelist.Application, questions []whitelist.Question) string {
	var sb strings.Builder
	sb.WriteString("<b>Whitelist - Novo Pedido</b>\n")
	fmt.Fprintf(&sb, "Candidato: %s\n", mention(app.Applicant))
	fmt.Fprintf(&sb, "Origem: <b>%s</b>\n", app.Source)
	fmt.Fprintf(&sb, "Pedido: %s\n", app.ID)

	for _, q := range questions {
		answer := app.Answers[q.Key]
		if answer == "" {
			answer = "—"
		}

		fmt.Fprintf(&sb, "\n<b>%s</b>\n%s\n", escape(q.Prompt), escape(answer))
	}

	return sb.String()
}

func mention(userID int64) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%d</a>`, userID, userID)
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, text)
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return "?"
	}

	if u.UserName != "" {
		return "@" + u.UserName
	}

	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}

	return name
}

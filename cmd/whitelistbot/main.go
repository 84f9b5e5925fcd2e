package main

import (
	"log"
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Samurai33/Bot-Whitelist/internal/bot"
	"github.com/Samurai33/Bot-Whitelist/internal/config"
	"github.com/Samurai33/Bot-Whitelist/internal/store"
	"github.com/Samurai33/Bot-Whitelist/internal/whitelist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	rawQuestions, err := config.LoadQuestions(cfg.QuestionsFile)
	if err != nil {
		log.Fatalf("Error loading questions: %v", err)
	}

	questions := make([]whitelist.Question, 0, len(rawQuestions))
	for _, q := range rawQuestions {
		questions = append(questions, whitelist.Question{Key: q.Key, Prompt: q.Prompt})
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Error creating telegram bot: %v", err)
	}

	sessions := store.NewSessionStore()
	cooldowns := store.NewCooldownTracker(cfg.Cooldown)

	messenger := bot.NewMessenger(botAPI)
	board := bot.NewReviewBoard(botAPI, cfg.StaffChatID, questions)
	members := bot.NewMemberships(botAPI, cfg.StaffChatID, cfg.MembersChatID, cfg.VisitorsChatID)
	notifier := bot.NewNotifier(botAPI, cfg.ApprovedNotifyChatID, cfg.RejectedNotifyChatID, logger)

	engine := whitelist.NewEngine(questions, sessions, cooldowns, messenger, board, cfg.QuestionTimeout, logger)
	decisions := whitelist.NewDecisionHandler(members, board, messenger, notifier, logger)
	schema := whitelist.NewFormSchema(questions)

	service := bot.New(botAPI, engine, decisions, schema, cfg, logger)

	log.Printf("Bot started as @%s", botAPI.Self.UserName)

	service.Start()
}

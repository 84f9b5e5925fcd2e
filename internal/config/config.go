package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken string

	// CommunityChatID restricts where the entry commands may be used.
	// Zero accepts any group.
	CommunityChatID      int64
	StaffChatID          int64
	ApprovedNotifyChatID int64
	RejectedNotifyChatID int64
	MembersChatID        int64
	VisitorsChatID       int64

	QuestionTimeout time.Duration
	Cooldown        time.Duration

	QuestionsFile string
}

// Question is one entry of the ordered question list loaded from the
// questions file.
type Question struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("config.Load: no .env file found - using env variables")
	}

	cfg := &Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		QuestionsFile: os.Getenv("QUESTIONS_FILE"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("config.Load: BOT_TOKEN is required")
	}

	if cfg.QuestionsFile == "" {
		cfg.QuestionsFile = "questions.json"
	}

	chatIDs := []struct {
		name     string
		required bool
		dst      *int64
	}{
		{"COMMUNITY_CHAT_ID", false, &cfg.CommunityChatID},
		{"STAFF_CHAT_ID", true, &cfg.StaffChatID},
		{"APPROVED_NOTIFY_CHAT_ID", false, &cfg.ApprovedNotifyChatID},
		{"REJECTED_NOTIFY_CHAT_ID", false, &cfg.RejectedNotifyChatID},
		{"MEMBERS_CHAT_ID", true, &cfg.MembersChatID},
		{"VISITORS_CHAT_ID", false, &cfg.VisitorsChatID},
	}

	for _, c := range chatIDs {
		value, err := parseChatID(c.name, c.required)
		if err != nil {
			return nil, err
		}
		*c.dst = value
	}

	cfg.QuestionTimeout, err = parseDuration("QUESTION_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.Cooldown, err = parseDuration("COOLDOWN", time.Hour)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadQuestions reads the ordered question list. Order in the file is the
// order the questionnaire asks in.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadQuestions: %w", err)
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("config.LoadQuestions: %w", err)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("config.LoadQuestions: %s has no questions", path)
	}

	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if q.Key == "" || q.Prompt == "" {
			return nil, fmt.Errorf("config.LoadQuestions: question %d needs key and prompt", i)
		}
		if seen[q.Key] {
			return nil, fmt.Errorf("config.LoadQuestions: duplicate key %q", q.Key)
		}
		seen[q.Key] = true
	}

	return questions, nil
}

func parseChatID(name string, required bool) (int64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("config.Load: %s is required", name)
		}
		return 0, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config.Load: %s must be a chat id: %w", name, err)
	}

	return value, nil
}

func parseDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config.Load: %s must be a duration: %w", name, err)
	}

	return value, nil
}

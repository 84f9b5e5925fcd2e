package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("STAFF_CHAT_ID", "-1001")
	t.Setenv("MEMBERS_CHAT_ID", "-1002")

	for _, name := range []string{
		"COMMUNITY_CHAT_ID", "APPROVED_NOTIFY_CHAT_ID", "REJECTED_NOTIFY_CHAT_ID",
		"VISITORS_CHAT_ID", "QUESTION_TIMEOUT", "COOLDOWN", "QUESTIONS_FILE",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VISITORS_CHAT_ID", "-1003")
	t.Setenv("QUESTION_TIMEOUT", "2m")
	t.Setenv("COOLDOWN", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, int64(-1001), cfg.StaffChatID)
	assert.Equal(t, int64(-1002), cfg.MembersChatID)
	assert.Equal(t, int64(-1003), cfg.VisitorsChatID)
	assert.Equal(t, int64(0), cfg.CommunityChatID)
	assert.Equal(t, 2*time.Minute, cfg.QuestionTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Cooldown)
	assert.Equal(t, "questions.json", cfg.QuestionsFile)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.QuestionTimeout)
	assert.Equal(t, time.Hour, cfg.Cooldown)
}

func TestLoadMissingToken(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingStaffChat(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STAFF_CHAT_ID", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsMalformedChatID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STAFF_CHAT_ID", "staff")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	data := `[{"key":"nome","prompt":"Qual é o seu nome?"},{"key":"idade","prompt":"Qual é a sua idade?"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	questions, err := LoadQuestions(path)
	require.NoError(t, err)

	require.Len(t, questions, 2)
	assert.Equal(t, "nome", questions[0].Key)
	assert.Equal(t, "Qual é a sua idade?", questions[1].Prompt)
}

func TestLoadQuestionsRejectsDuplicateKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	data := `[{"key":"nome","prompt":"a"},{"key":"nome","prompt":"b"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := LoadQuestions(path)
	assert.Error(t, err)
}

func TestLoadQuestionsRejectsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	_, err := LoadQuestions(path)
	assert.Error(t, err)
}

func TestLoadQuestionsMissingFile(t *testing.T) {
	_, err := LoadQuestions(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

package whitelist

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samurai33/Bot-Whitelist/internal/store"
)

type fakeMessenger struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeMessenger) SendDM(userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("dm closed")
	}

	f.sent = append(f.sent, text)

	return nil
}

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.sent))
	copy(out, f.sent)

	return out
}

func (f *fakeMessenger) contains(substr string) bool {
	for _, text := range f.texts() {
		if strings.Contains(text, substr) {
			return true
		}
	}

	return false
}

type fakeBoard struct {
	mu     sync.Mutex
	posted []Application
	fail   bool
}

func (f *fakeBoard) PostApplication(app Application) (ArtifactRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return ArtifactRef{}, errors.New("staff channel unreachable")
	}

	f.posted = append(f.posted, app)

	return ArtifactRef{ChatID: -100, MessageID: len(f.posted)}, nil
}

func (f *fakeBoard) MarkApproved(ArtifactRef, int64, string) error {
	return nil
}

func (f *fakeBoard) MarkRejected(ArtifactRef, int64, string, string) error {
	return nil
}

func (f *fakeBoard) applications() []Application {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Application, len(f.posted))
	copy(out, f.posted)

	return out
}

type fakeCooldowns struct {
	recorded  []int64
	in        bool
	remaining time.Duration
}

func (f *fakeCooldowns) Record(userID int64) {
	f.recorded = append(f.recorded, userID)
}

func (f *fakeCooldowns) InCooldown(int64) bool {
	return f.in
}

func (f *fakeCooldowns) Remaining(int64) time.Duration {
	return f.remaining
}

var testQuestions = []Question{
	{Key: "nome", Prompt: "Qual é o seu nome completo?"},
	{Key: "idade", Prompt: "Qual é a sua idade?"},
}

type engineFixture struct {
	engine    *Engine
	sessions  *store.SessionStore
	cooldowns *fakeCooldowns
	messenger *fakeMessenger
	board     *fakeBoard
}

func newEngineFixture(timeout time.Duration) *engineFixture {
	f := &engineFixture{
		sessions:  store.NewSessionStore(),
		cooldowns: &fakeCooldowns{},
		messenger: &fakeMessenger{},
		board:     &fakeBoard{},
	}

	f.engine = NewEngine(
		testQuestions,
		f.sessions,
		f.cooldowns,
		f.messenger,
		f.board,
		timeout,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	return f
}

func TestStartAsksFirstQuestion(t *testing.T) {
	f := newEngineFixture(time.Minute)

	require.NoError(t, f.engine.Start(1, 100))

	assert.True(t, f.sessions.Has(1))
	assert.True(t, f.messenger.contains("Vamos iniciar"))
	assert.True(t, f.messenger.contains("Pergunta 1/2"))
}

func TestStartRefusedWhileSessionActive(t *testing.T) {
	f := newEngineFixture(time.Minute)

	require.NoError(t, f.engine.Start(1, 100))
	assert.ErrorIs(t, f.engine.Start(1, 100), ErrSessionActive)
}

func TestStartRefusedInCooldown(t *testing.T) {
	f := newEngineFixture(time.Minute)
	f.cooldowns.in = true
	f.cooldowns.remaining = 10 * time.Minute

	err := f.engine.Start(1, 100)

	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 10*time.Minute, cooldown.Remaining)
	assert.False(t, f.sessions.Has(1))
}

func TestStartDeliveryFailureCleansUp(t *testing.T) {
	f := newEngineFixture(time.Minute)
	f.messenger.fail = true

	err := f.engine.Start(1, 100)

	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.False(t, f.sessions.Has(1))
}

func TestCancelMidQuestionnaire(t *testing.T) {
	f := newEngineFixture(time.Minute)

	require.NoError(t, f.engine.Start(1, 100))

	handled, err := f.engine.HandleAnswer(1, "João")
	require.NoError(t, err)
	require.True(t, handled)
	assert.True(t, f.messenger.contains("Pergunta 2/2"))

	handled, err = f.engine.HandleAnswer(1, "CANCELAR")
	require.NoError(t, err)
	require.True(t, handled)

	assert.False(t, f.sessions.Has(1))
	assert.True(t, f.messenger.contains("Whitelist cancelada"))
	assert.Empty(t, f.board.applications())
}

func TestCompleteQuestionnaire(t *testing.T) {
	f := newEngineFixture(time.Minute)

	require.NoError(t, f.engine.Start(1, 100))

	_, err := f.engine.HandleAnswer(1, "João")
	require.NoError(t, err)
	_, err = f.engine.HandleAnswer(1, "22")
	require.NoError(t, err)

	apps := f.board.applications()
	require.Len(t, apps, 1)
	assert.Equal(t, SourceDM, apps[0].Source)
	assert.Equal(t, int64(1), apps[0].Applicant)
	assert.Equal(t, "João", apps[0].Answers["nome"])
	assert.Equal(t, "22", apps[0].Answers["idade"])
	assert.NotEmpty(t, apps[0].ID)

	assert.False(t, f.sessions.Has(1))
	assert.Equal(t, []int64{1}, f.cooldowns.recorded)
	assert.True(t, f.messenger.contains("Recebemos suas respostas"))
}

func TestAnswerWithoutSessionIgnored(t *testing.T) {
	f := newEngineFixture(time.Minute)

	handled, err := f.engine.HandleAnswer(1, "olá")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestDesyncedSessionDeleted(t *testing.T) {
	f := newEngineFixture(time.Minute)

	require.NoError(t, f.engine.Start(1, 100))
	f.sessions.Update(1, func(s *store.Session) { s.Step = 99 })

	handled, err := f.engine.HandleAnswer(1, "resposta")
	require.True(t, handled)
	assert.ErrorIs(t, err, ErrSessionCorrupted)
	assert.False(t, f.sessions.Has(1))
	assert.True(t, f.messenger.contains("Erro de sessão"))
}

func TestQuestionTimeoutExpiresSession(t *testing.T) {
	f := newEngineFixture(20 * time.Millisecond)

	require.NoError(t, f.engine.Start(1, 100))

	require.Eventually(t, func() bool {
		return !f.sessions.Has(1)
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return f.messenger.contains("Tempo esgotado")
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, f.board.applications())
}

func TestCompletionDegradesWhenBoardUnavailable(t *testing.T) {
	f := newEngineFixture(time.Minute)
	f.board.fail = true

	require.NoError(t, f.engine.Start(1, 100))

	_, err := f.engine.HandleAnswer(1, "João")
	require.NoError(t, err)
	_, err = f.engine.HandleAnswer(1, "22")

	assert.ErrorIs(t, err, ErrReviewUnavailable)
	assert.False(t, f.sessions.Has(1))
	assert.Equal(t, []int64{1}, f.cooldowns.recorded)
	assert.True(t, f.messenger.contains("não consegui postar"))
}

func TestSubmitForm(t *testing.T) {
	f := newEngineFixture(time.Minute)

	answers := map[string]string{"nome": "Maria", "idade": "30"}
	require.NoError(t, f.engine.SubmitForm(2, answers))

	apps := f.board.applications()
	require.Len(t, apps, 1)
	assert.Equal(t, SourceForm, apps[0].Source)
	assert.Equal(t, int64(2), apps[0].Applicant)

	assert.False(t, f.sessions.Has(2))
	assert.Equal(t, []int64{2}, f.cooldowns.recorded)
}

func TestSubmitFormRefusedWhileSessionActive(t *testing.T) {
	f := newEngineFixture(time.Minute)

	require.NoError(t, f.engine.Start(1, 100))
	assert.ErrorIs(t, f.engine.SubmitForm(1, map[string]string{"nome": "x"}), ErrSessionActive)
}

func TestSubmitFormRefusedInCooldown(t *testing.T) {
	f := newEngineFixture(time.Minute)
	f.cooldowns.in = true
	f.cooldowns.remaining = time.Minute

	var cooldown *CooldownError
	assert.ErrorAs(t, f.engine.SubmitForm(1, map[string]string{"nome": "x"}), &cooldown)
	assert.Empty(t, f.board.applications())
}

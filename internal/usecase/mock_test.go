//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"forum-telegram-relay/internal/config"
	"forum-telegram-relay/internal/domain"
	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/domain/ports/adapter"
	"forum-telegram-relay/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu sync.Mutex

	FindUIDByTelegramIDFunc func(ctx context.Context, telegramID int64) (int64, error)
	TelegramIDsFunc         func(ctx context.Context, uids []int64) (map[int64]int64, error)
	SettingsFunc            func(ctx context.Context, uid int64) (*model.UserSettings, error)
	CountUsersFunc          func(ctx context.Context) (int, error)

	Calls struct {
		Settings []int64
	}
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func (m *MockUserRepo) FindUIDByTelegramID(ctx context.Context, telegramID int64) (int64, error) {
	if m.FindUIDByTelegramIDFunc != nil {
		return m.FindUIDByTelegramIDFunc(ctx, telegramID)
	}
	return 0, domain.ErrNotFound
}

func (m *MockUserRepo) TelegramIDs(ctx context.Context, uids []int64) (map[int64]int64, error) {
	if m.TelegramIDsFunc != nil {
		return m.TelegramIDsFunc(ctx, uids)
	}
	return map[int64]int64{}, nil
}

func (m *MockUserRepo) Settings(ctx context.Context, uid int64) (*model.UserSettings, error) {
	m.mu.Lock()
	m.Calls.Settings = append(m.Calls.Settings, uid)
	m.mu.Unlock()
	if m.SettingsFunc != nil {
		return m.SettingsFunc(ctx, uid)
	}
	return &model.UserSettings{UID: uid}, nil
}

func (m *MockUserRepo) CountUsers(ctx context.Context) (int, error) {
	if m.CountUsersFunc != nil {
		return m.CountUsersFunc(ctx)
	}
	return 0, nil
}

// ---- Mock TopicRepository ----

type MockTopicRepo struct {
	mu sync.Mutex

	ReplyFunc  func(ctx context.Context, tid, uid int64, content string) error
	RecentFunc func(ctx context.Context, uid int64, limit int) ([]model.TopicSummary, error)
	FieldsFunc func(ctx context.Context, tid int64) (*model.Topic, error)

	Calls struct {
		Reply []struct {
			TID     int64
			UID     int64
			Content string
		}
		RecentLimits []int
	}
}

var _ repository.TopicRepository = (*MockTopicRepo)(nil)

func (m *MockTopicRepo) Reply(ctx context.Context, tid, uid int64, content string) error {
	m.mu.Lock()
	m.Calls.Reply = append(m.Calls.Reply, struct {
		TID     int64
		UID     int64
		Content string
	}{tid, uid, content})
	m.mu.Unlock()
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, tid, uid, content)
	}
	return nil
}

func (m *MockTopicRepo) Recent(ctx context.Context, uid int64, limit int) ([]model.TopicSummary, error) {
	m.mu.Lock()
	m.Calls.RecentLimits = append(m.Calls.RecentLimits, limit)
	m.mu.Unlock()
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, uid, limit)
	}
	return nil, nil
}

func (m *MockTopicRepo) Fields(ctx context.Context, tid int64) (*model.Topic, error) {
	if m.FieldsFunc != nil {
		return m.FieldsFunc(ctx, tid)
	}
	return &model.Topic{TID: tid, Title: "topic", Slug: "topic"}, nil
}

// ---- Mock SettingsRepository ----

type MockSettingsRepo struct {
	mu     sync.Mutex
	Values map[string]string
}

var _ repository.SettingsRepository = (*MockSettingsRepo)(nil)

func NewMockSettingsRepo(values map[string]string) *MockSettingsRepo {
	if values == nil {
		values = map[string]string{}
	}
	return &MockSettingsRepo{Values: values}
}

func (m *MockSettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.Values))
	for k, v := range m.Values {
		out[k] = v
	}
	return out, nil
}

func (m *MockSettingsRepo) SetAll(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.Values[k] = v
	}
	return nil
}

func (m *MockSettingsRepo) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Values[key]; ok {
		return false, nil
	}
	m.Values[key] = value
	return true, nil
}

// =============================
// Adapters
// =============================

// ---- Mock ReplyGuard ----

type MockGuard struct {
	mu sync.Mutex

	AcquireFunc func(ctx context.Context, uid int64) (string, error)
	ReleaseFunc func(ctx context.Context, uid int64, token string) error

	Released []string
}

var _ adapter.ReplyGuard = (*MockGuard)(nil)

func (m *MockGuard) Acquire(ctx context.Context, uid int64) (string, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, uid)
	}
	return "token-1", nil
}

func (m *MockGuard) Release(ctx context.Context, uid int64, token string) error {
	m.mu.Lock()
	m.Released = append(m.Released, token)
	m.mu.Unlock()
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, uid, token)
	}
	return nil
}

// ---- Mock OutboundPublisher ----

type MockPublisher struct {
	mu   sync.Mutex
	Sent []model.OutboundMessage

	PublishOutboundFunc func(ctx context.Context, msg model.OutboundMessage) error
}

var _ adapter.OutboundPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) PublishOutbound(ctx context.Context, msg model.OutboundMessage) error {
	if m.PublishOutboundFunc != nil {
		return m.PublishOutboundFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockPublisher) Last(t *testing.T) model.OutboundMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		t.Fatal("expected at least one published message")
	}
	return m.Sent[len(m.Sent)-1]
}

// ---- Mock Translator ----

// MockTranslator records lookups and passes keys through unchanged, so
// assertions can compare against the key.
type MockTranslator struct {
	mu sync.Mutex

	TFunc func(lang, key string, args ...interface{}) string

	Calls []struct {
		Lang string
		Key  string
	}
}

func (m *MockTranslator) T(lang, key string, args ...interface{}) string {
	m.mu.Lock()
	m.Calls = append(m.Calls, struct {
		Lang string
		Key  string
	}{lang, key})
	m.mu.Unlock()
	if m.TFunc != nil {
		return m.TFunc(lang, key, args...)
	}
	return key
}

// ---- Mock LanguageResolver ----

type MockLangs struct {
	ResolveFunc func(ctx context.Context, uid int64) string
}

func (m *MockLangs) Resolve(ctx context.Context, uid int64) string {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, uid)
	}
	return "en-GB"
}

// ---- Mock BotIdentity ----

type MockIdentity struct {
	Name string
}

func (m *MockIdentity) Identity() string { return m.Name }

// =============================
// Helpers
// =============================

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newTestStore builds a settings store backed by an in-memory repo and
// loads the given values.
func newTestStore(t *testing.T, values map[string]string) *config.Store {
	t.Helper()
	store := config.NewStore(NewMockSettingsRepo(values), config.BotConfig{Token: "fallback-token"})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"forum-telegram-relay/internal/domain/ports/repository"
)

// Persisted relay settings keys.
const (
	KeyCredential     = "credential"
	KeyRoomID         = "roomId"
	KeyMaxLength      = "maxLength"
	KeyPostCategories = "postCategories"
	KeyTopicsOnly     = "topicsOnly"
	KeyMessageContent = "messageContent"
)

const (
	defaultMaxLength      = 1024
	defaultMessageContent = "New post in forum:"
)

// RelayConfig is an immutable snapshot of the relay settings. The Store
// replaces snapshots wholesale; readers never observe a partial update.
type RelayConfig struct {
	BotToken       string
	RoomID         int64
	MaxLength      int
	PostCategories map[string]struct{} // empty means all categories
	TopicsOnly     bool
	MessageContent string
	ReconnectDelay time.Duration
}

// CategoryAllowed reports whether a post in cid should be announced.
func (c *RelayConfig) CategoryAllowed(cid string) bool {
	if len(c.PostCategories) == 0 {
		return true
	}
	_, ok := c.PostCategories[cid]
	return ok
}

// Store holds the current RelayConfig and its persistence. Snapshots
// are swapped atomically on load and save.
type Store struct {
	repo     repository.SettingsRepository
	fallback BotConfig
	current  atomic.Pointer[RelayConfig]
}

func NewStore(repo repository.SettingsRepository, fallback BotConfig) *Store {
	s := &Store{repo: repo, fallback: fallback}
	cfg := buildRelayConfig(nil, fallback)
	s.current.Store(cfg)
	return s
}

// Load reads the persisted settings and swaps in a fresh snapshot.
func (s *Store) Load(ctx context.Context) error {
	values, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load relay settings: %w", err)
	}
	s.current.Store(buildRelayConfig(values, s.fallback))
	return nil
}

// Snapshot returns the current settings. The returned value must not be
// mutated.
func (s *Store) Snapshot() *RelayConfig {
	return s.current.Load()
}

// Save validates and persists the given settings values, then reloads.
func (s *Store) Save(ctx context.Context, values map[string]string) error {
	if raw, ok := values[KeyMaxLength]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return fmt.Errorf("maxLength must be a positive integer, got %q", raw)
		}
	}
	if raw, ok := values[KeyPostCategories]; ok && raw != "" {
		var cids []string
		if err := json.Unmarshal([]byte(raw), &cids); err != nil {
			return fmt.Errorf("postCategories must be a JSON array of category ids: %w", err)
		}
	}
	if raw, ok := values[KeyRoomID]; ok && raw != "" {
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Errorf("roomId must be an integer, got %q", raw)
		}
	}
	if err := s.repo.SetAll(ctx, values); err != nil {
		return fmt.Errorf("save relay settings: %w", err)
	}
	return s.Load(ctx)
}

// BindRoom records chatID as the target room if none is configured yet.
// First writer wins; concurrent and subsequent binds are no-ops. It
// reports whether this call performed the bind.
func (s *Store) BindRoom(ctx context.Context, chatID int64) (bool, error) {
	if s.Snapshot().RoomID != 0 {
		return false, nil
	}
	won, err := s.repo.SetIfAbsent(ctx, KeyRoomID, strconv.FormatInt(chatID, 10))
	if err != nil {
		return false, fmt.Errorf("bind room: %w", err)
	}
	if err := s.Load(ctx); err != nil {
		return won, err
	}
	return won, nil
}

// buildRelayConfig applies defaults for any missing or malformed field.
func buildRelayConfig(values map[string]string, fallback BotConfig) *RelayConfig {
	cfg := &RelayConfig{
		BotToken:       fallback.Token,
		MaxLength:      defaultMaxLength,
		PostCategories: map[string]struct{}{},
		MessageContent: defaultMessageContent,
		ReconnectDelay: fallback.ReconnectDelay,
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 10 * time.Second
	}
	if v := values[KeyCredential]; v != "" {
		cfg.BotToken = v
	}
	if v := values[KeyRoomID]; v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.RoomID = id
		}
	}
	if v := values[KeyMaxLength]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.MaxLength = n
		}
	}
	if v := values[KeyPostCategories]; v != "" {
		var cids []string
		if err := json.Unmarshal([]byte(v), &cids); err == nil {
			for _, cid := range cids {
				cfg.PostCategories[cid] = struct{}{}
			}
		}
	}
	cfg.TopicsOnly = values[KeyTopicsOnly] == "on"
	if v := values[KeyMessageContent]; v != "" {
		cfg.MessageContent = v
	}
	return cfg
}

package repository

import (
	"context"

	"forum-telegram-relay/internal/domain/model"
)

// UserRepository exposes the forum-side user lookups the relay depends
// on. The telegram identity binding is created by the forum's settings
// UI; the relay only reads it.
type UserRepository interface {
	// FindUIDByTelegramID resolves a telegram user id to a forum uid.
	// Returns domain.ErrNotFound for an unbound identity.
	FindUIDByTelegramID(ctx context.Context, telegramID int64) (int64, error)

	// TelegramIDs returns the telegram ids bound to the given uids.
	// Uids without a binding are simply absent from the result.
	TelegramIDs(ctx context.Context, uids []int64) (map[int64]int64, error)

	Settings(ctx context.Context, uid int64) (*model.UserSettings, error)

	CountUsers(ctx context.Context) (int, error)
}

package repository

import "context"

// SettingsRepository persists the relay's key/value settings.
type SettingsRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)

	SetAll(ctx context.Context, values map[string]string) error

	// SetIfAbsent writes a key only when it has no value yet and reports
	// whether this call was the writer. Used for bind-on-first-contact,
	// where the first writer must win across processes.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
}

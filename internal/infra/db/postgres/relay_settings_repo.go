package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"forum-telegram-relay/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*RelaySettingsRepo)(nil)

// RelaySettingsRepo persists the relay's key/value settings.
type RelaySettingsRepo struct {
	pool *pgxpool.Pool
}

func NewRelaySettingsRepo(pool *pgxpool.Pool) *RelaySettingsRepo {
	return &RelaySettingsRepo{pool: pool}
}

func (r *RelaySettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM relay_settings;`)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("get settings scan: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *RelaySettingsRepo) SetAll(ctx context.Context, values map[string]string) error {
	const q = `
INSERT INTO relay_settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = $2;
`
	for k, v := range values {
		if _, err := r.pool.Exec(ctx, q, k, v); err != nil {
			return fmt.Errorf("set setting %s: %w", k, err)
		}
	}
	return nil
}

// SetIfAbsent inserts the key only when missing. The command tag tells
// us whether this call was the first writer.
func (r *RelaySettingsRepo) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	const q = `
INSERT INTO relay_settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO NOTHING;
`
	ct, err := r.pool.Exec(ctx, q, key, value)
	if err != nil {
		return false, fmt.Errorf("set setting if absent %s: %w", key, err)
	}
	return ct.RowsAffected() == 1, nil
}

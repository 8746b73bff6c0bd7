package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"forum-telegram-relay/internal/domain"
	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*ForumUserRepo)(nil)

// ForumUserRepo reads forum users, their telegram identity bindings and
// their language settings. The binding itself is written by the forum's
// settings UI; the relay only looks it up.
type ForumUserRepo struct {
	pool *pgxpool.Pool
}

func NewForumUserRepo(pool *pgxpool.Pool) *ForumUserRepo {
	return &ForumUserRepo{pool: pool}
}

func (r *ForumUserRepo) FindUIDByTelegramID(ctx context.Context, telegramID int64) (int64, error) {
	const q = `SELECT uid FROM users WHERE telegram_id = $1;`
	var uid int64
	if err := r.pool.QueryRow(ctx, q, telegramID).Scan(&uid); err != nil {
		if err == pgx.ErrNoRows {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("find uid by telegram id: %w", err)
	}
	return uid, nil
}

func (r *ForumUserRepo) TelegramIDs(ctx context.Context, uids []int64) (map[int64]int64, error) {
	const q = `SELECT uid, telegram_id FROM users WHERE uid = ANY($1) AND telegram_id IS NOT NULL;`
	rows, err := r.pool.Query(ctx, q, uids)
	if err != nil {
		return nil, fmt.Errorf("telegram ids: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64, len(uids))
	for rows.Next() {
		var uid, tgID int64
		if err := rows.Scan(&uid, &tgID); err != nil {
			return nil, fmt.Errorf("telegram ids scan: %w", err)
		}
		out[uid] = tgID
	}
	return out, rows.Err()
}

func (r *ForumUserRepo) Settings(ctx context.Context, uid int64) (*model.UserSettings, error) {
	const q = `SELECT uid, COALESCE(language, '') FROM users WHERE uid = $1;`
	var s model.UserSettings
	if err := r.pool.QueryRow(ctx, q, uid).Scan(&s.UID, &s.Language); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("user settings: %w", err)
	}
	return &s, nil
}

func (r *ForumUserRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

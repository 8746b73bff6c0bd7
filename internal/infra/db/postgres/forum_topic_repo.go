package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"forum-telegram-relay/internal/domain"
	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/domain/ports/repository"
)

var _ repository.TopicRepository = (*ForumTopicRepo)(nil)

type ForumTopicRepo struct {
	pool *pgxpool.Pool
}

func NewForumTopicRepo(pool *pgxpool.Pool) *ForumTopicRepo {
	return &ForumTopicRepo{pool: pool}
}

func (r *ForumTopicRepo) Reply(ctx context.Context, tid, uid int64, content string) error {
	const q = `
INSERT INTO posts (tid, uid, content, is_main, created_at)
VALUES ($1, $2, $3, FALSE, $4);
`
	if _, err := r.pool.Exec(ctx, q, tid, uid, content, time.Now()); err != nil {
		var pgErr *pgconn.PgError
		// 23503: replying to a topic or as a user that does not exist
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert reply: %w", err)
	}
	return nil
}

func (r *ForumTopicRepo) Recent(ctx context.Context, uid int64, limit int) ([]model.TopicSummary, error) {
	const q = `
SELECT t.tid, t.title, u.username, t.last_post_time
  FROM topics t
  JOIN users u ON u.uid = t.uid
 WHERE NOT t.deleted
 ORDER BY t.last_post_time DESC
 LIMIT $1;
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent topics: %w", err)
	}
	defer rows.Close()

	var out []model.TopicSummary
	for rows.Next() {
		var t model.TopicSummary
		if err := rows.Scan(&t.TID, &t.Title, &t.AuthorName, &t.LastPostTime); err != nil {
			return nil, fmt.Errorf("recent topics scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *ForumTopicRepo) Fields(ctx context.Context, tid int64) (*model.Topic, error) {
	const q = `SELECT tid, title, slug FROM topics WHERE tid = $1;`
	var t model.Topic
	if err := r.pool.QueryRow(ctx, q, tid).Scan(&t.TID, &t.Title, &t.Slug); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("topic fields: %w", err)
	}
	return &t, nil
}

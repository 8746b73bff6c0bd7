package repository

import (
	"context"

	"forum-telegram-relay/internal/domain/model"
)

// TopicRepository exposes the forum-side topic operations the relay
// depends on.
type TopicRepository interface {
	// Reply posts content as a reply to tid on behalf of uid.
	Reply(ctx context.Context, tid, uid int64, content string) error

	// Recent lists the most recent topics visible to uid, newest first.
	Recent(ctx context.Context, uid int64, limit int) ([]model.TopicSummary, error)

	// Fields fetches title and slug for a topic.
	Fields(ctx context.Context, tid int64) (*model.Topic, error)
}

// File: internal/infra/redis/reply_guard.go
package redis

import (
	"context"
	"fmt"
	"time"

	"forum-telegram-relay/internal/domain"
	"forum-telegram-relay/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// guardTTL caps how long an orphaned guard can survive a crashed
// process. Normal completion always releases explicitly.
const guardTTL = 5 * time.Minute

var _ adapter.ReplyGuard = (*ReplyGuard)(nil)

// ReplyGuard implements the per-uid in-flight reply flag on Redis, so
// it also holds across worker processes sharing the event bus.
type ReplyGuard struct {
	cli *Client
}

func NewReplyGuard(c *Client) *ReplyGuard {
	return &ReplyGuard{cli: c}
}

func guardKey(uid int64) string {
	return fmt.Sprintf("relay:reply-guard:%d", uid)
}

func (g *ReplyGuard) Acquire(ctx context.Context, uid int64) (string, error) {
	token := uuid.NewString()
	ok, err := g.cli.SetNX(ctx, guardKey(uid), token, guardTTL)
	if err != nil {
		return "", fmt.Errorf("acquire reply guard: %w", err)
	}
	if !ok {
		return "", domain.ErrReplyInFlight
	}
	return token, nil
}

var luaRelease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (g *ReplyGuard) Release(ctx context.Context, uid int64, token string) error {
	_, err := luaRelease.Run(ctx, g.cli.cli, []string{guardKey(uid)}, token).Result()
	return err
}

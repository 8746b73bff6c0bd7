package adapter

import "context"

// ReplyGuard marks "a reply command is in flight for this forum user".
// Acquire returns domain.ErrReplyInFlight when the guard is already
// held. The token must be passed back to Release so a late release
// cannot clear a newer holder's guard.
type ReplyGuard interface {
	Acquire(ctx context.Context, uid int64) (token string, err error)
	Release(ctx context.Context, uid int64, token string) error
}

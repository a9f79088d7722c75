package contracts

import (
	"context"
	"time"
)

// LockerService hands out short-lived ownership of a key, used to elect the
// instance that runs a scheduled job. The token returned by TryLock proves
// ownership to Unlock and Refresh.
type LockerService interface {
	TryLock(ctx context.Context, key string, expiration time.Duration) (acquired bool, token string, err error)
	Unlock(ctx context.Context, key, token string) error
	Refresh(ctx context.Context, key, token string, expiration time.Duration) error
}

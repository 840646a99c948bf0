package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock is already held")

// unlockScript deletes the key only if it still holds the caller's token.
const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`

// TryLock attempts to acquire a distributed lock identified by key using SET NX PX.
// On success it returns an unlock function that must be called to release the lock.
// If the lock is already held, ErrLocked is returned.
func TryLock(ctx context.Context, r *Redis, key string, ttl time.Duration) (unlock func(), err error) {
	token := randomToken()

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// Background context: release even when the request context is already cancelled.
		_ = r.client.Eval(context.Background(), unlockScript, []string{key}, token).Err()
	}, nil
}

// Lock retries TryLock every retry interval until it succeeds, ctx ends, or wait elapses.
func Lock(ctx context.Context, r *Redis, key string, ttl, wait, retry time.Duration) (func(), error) {
	deadline := time.Now().Add(wait)
	for {
		unlock, err := TryLock(ctx, r, key, ttl)
		if !errors.Is(err, ErrLocked) {
			return unlock, err
		}
		if time.Now().After(deadline) {
			return nil, ErrLocked
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry):
		}
	}
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// RoomLocker exposes the Redis locks with the shapes the queue service consumes.
type RoomLocker struct {
	r          *Redis
	advanceTTL time.Duration
}

// NewRoomLocker returns a RoomLocker whose advance locks expire after advanceTTL.
func NewRoomLocker(r *Redis, advanceTTL time.Duration) *RoomLocker {
	if advanceTTL <= 0 {
		advanceTTL = 10 * time.Second
	}
	return &RoomLocker{r: r, advanceTTL: advanceTTL}
}

// LockAdvance takes the room's advance lock without waiting; ErrLocked means another
// advance for the room is in flight.
func (l *RoomLocker) LockAdvance(ctx context.Context, ownerID string) (func(), error) {
	return TryLock(ctx, l.r, AdvanceLockKey(ownerID), l.advanceTTL)
}

// LockSubmit takes the submitter's admission lock, waiting briefly for a concurrent
// submission from the same submitter to finish.
func (l *RoomLocker) LockSubmit(ctx context.Context, ownerID, submitterID string) (func(), error) {
	return Lock(ctx, l.r, SubmitLockKey(ownerID, submitterID), 5*time.Second, 2*time.Second, 50*time.Millisecond)
}

package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptRepo counts failed one-time-code verifications per user in Redis.
// A nil client disables counting: Incr always reports zero.
type AttemptRepo struct {
	rdb    *redis.Client
	prefix string
}

// NewAttemptRepo returns an AttemptRepo; rdb may be nil.
func NewAttemptRepo(rdb *redis.Client) *AttemptRepo {
	return &AttemptRepo{rdb: rdb, prefix: "otp_attempts:"}
}

// incrScript increments the counter and sets its expiry on first use so the
// window starts at the first failure.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Incr records one failure and returns the count inside the window.
func (r *AttemptRepo) Incr(ctx context.Context, userID uint64, window time.Duration) (int64, error) {
	if r == nil || r.rdb == nil {
		return 0, nil
	}
	return incrScript.Run(ctx, r.rdb, []string{r.key(userID)}, window.Milliseconds()).Int64()
}

// Reset clears the counter of the user.
func (r *AttemptRepo) Reset(ctx context.Context, userID uint64) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Del(ctx, r.key(userID)).Err()
}

func (r *AttemptRepo) key(userID uint64) string {
	return r.prefix + strconv.FormatUint(userID, 10)
}

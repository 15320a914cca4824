package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BradenHooton/loginguard/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisFailedLoginRepository stores failed login attempts in sorted sets scored
// by attempted_at. Every attempt is written to two sets sharing one member:
//
//	<prefix>:{<ip>}:uid:<uid>   attempts for the uid/ip pair
//	<prefix>:{<ip>}:ip          attempts for the address across all accounts
//
// The hash tag keeps both keys of an address in one cluster slot.
type RedisFailedLoginRepository struct {
	redis  redis.UniversalClient
	prefix string
}

// purgePairScript removes a pair's members from the address set and drops the pair set
var purgePairScript = redis.NewScript(`
local members = redis.call('ZRANGE', KEYS[1], '0', '-1')
for i = 1, #members, 500 do
	redis.call('ZREM', KEYS[2], unpack(members, i, math.min(i + 499, #members)))
end
redis.call('DEL', KEYS[1])
return #members
`)

// NewRedisFailedLoginRepository creates a new RedisFailedLoginRepository
func NewRedisFailedLoginRepository(client redis.UniversalClient, prefix string) *RedisFailedLoginRepository {
	if prefix == "" {
		prefix = "bfp"
	}
	return &RedisFailedLoginRepository{redis: client, prefix: prefix}
}

func (r *RedisFailedLoginRepository) pairKey(uid, ip string) string {
	return r.prefix + ":{" + ip + "}:uid:" + uid
}

func (r *RedisFailedLoginRepository) ipKey(ip string) string {
	return r.prefix + ":{" + ip + "}:ip"
}

// Insert appends one attempt to both sets in a single MULTI/EXEC
func (r *RedisFailedLoginRepository) Insert(ctx context.Context, attempt *models.FailedLoginAttempt) error {
	member := redis.Z{
		Score:  float64(attempt.AttemptedAt),
		Member: uuid.NewString(),
	}

	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, r.pairKey(attempt.UID, attempt.IP), member)
		pipe.ZAdd(ctx, r.ipKey(attempt.IP), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}

// CountSince returns the number of attempts for a uid/ip pair newer than after
func (r *RedisFailedLoginRepository) CountSince(ctx context.Context, uid, ip string, after int64) (int64, error) {
	count, err := r.redis.ZCount(ctx, r.pairKey(uid, ip), exclusive(after), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return count, nil
}

// LatestSince returns the most recent attempt time for ip newer than after
func (r *RedisFailedLoginRepository) LatestSince(ctx context.Context, ip string, after int64) (int64, bool, error) {
	res, err := r.redis.ZRevRangeByScoreWithScores(ctx, r.ipKey(ip), &redis.ZRangeBy{
		Max:   "+inf",
		Min:   exclusive(after),
		Count: 1,
	}).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	if len(res) == 0 {
		return 0, false, nil
	}
	return int64(res[0].Score), true, nil
}

// DeletePair removes every attempt for a uid/ip pair
func (r *RedisFailedLoginRepository) DeletePair(ctx context.Context, uid, ip string) error {
	keys := []string{r.pairKey(uid, ip), r.ipKey(ip)}
	if err := purgePairScript.Run(ctx, r.redis, keys).Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}

// DeleteOlderThan trims attempts at or before cutoff from every set under the
// prefix and returns how many attempts were removed.
func (r *RedisFailedLoginRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	var removed int64
	max := strconv.FormatInt(cutoff, 10)

	iter := r.redis.Scan(ctx, 0, r.prefix+":{*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		n, err := r.redis.ZRemRangeByScore(ctx, key, "-inf", max).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
		// Each attempt lives in two sets; count it once
		if r.isPairKey(key) {
			removed += n
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	return removed, nil
}

// HealthCheck pings redis
func (r *RedisFailedLoginRepository) HealthCheck(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *RedisFailedLoginRepository) isPairKey(key string) bool {
	rest := strings.TrimPrefix(key, r.prefix+":{")
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		return false
	}
	return strings.HasPrefix(rest[end+1:], ":uid:")
}

func exclusive(score int64) string {
	return "(" + strconv.FormatInt(score, 10)
}

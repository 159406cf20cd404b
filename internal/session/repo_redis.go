package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry stores each refresh-token family as a hash keyed by family id.
// The compare-and-advance runs as a single Lua script, so concurrent rotation
// attempts for the same token id serialize inside Redis and exactly one wins.
type RedisRegistry struct {
	rdb *redis.Client
}

func NewRedisRegistry(rdb *redis.Client) *RedisRegistry {
	return &RedisRegistry{rdb: rdb}
}

func familyKey(familyID string) string {
	return "authgate:session:" + familyID
}

var advanceScript = redis.NewScript(`
-- KEYS[1] = family hash key
-- ARGV[1] = presented token id
-- ARGV[2] = new token id
-- ARGV[3] = now (unix ms)
-- ARGV[4] = new expires_at (unix ms)
--
-- Returns:
--  {-1}                       family not found
--  {-2}                       family revoked
--  {-3}                       family expired
--  {-4}                       presented token is not current
--  {0, seq, user_id, tenant_id, created_at_ms}  advanced
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1}
end
if redis.call('HGET', KEYS[1], 'revoked') == '1' then
  return {-2}
end
local exp = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if exp <= tonumber(ARGV[3]) then
  return {-3}
end
if redis.call('HGET', KEYS[1], 'token_id') ~= ARGV[1] then
  return {-4}
end
local seq = redis.call('HINCRBY', KEYS[1], 'sequence', 1)
redis.call('HSET', KEYS[1], 'token_id', ARGV[2], 'expires_at', ARGV[4])
redis.call('PEXPIREAT', KEYS[1], ARGV[4])
local user = redis.call('HGET', KEYS[1], 'user_id')
local tenant = redis.call('HGET', KEYS[1], 'tenant_id')
local created = redis.call('HGET', KEYS[1], 'created_at')
return {0, seq, user, tenant, created}
`)

func (r *RedisRegistry) Create(ctx context.Context, s Session) error {
	key := familyKey(s.FamilyID)

	revoked := "0"
	if s.Revoked {
		revoked = "1"
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"token_id", s.TokenID,
		"user_id", s.UserID,
		"tenant_id", s.TenantID,
		"sequence", s.Sequence,
		"revoked", revoked,
		"created_at", s.CreatedAt.UnixMilli(),
		"expires_at", s.ExpiresAt.UnixMilli(),
	)
	pipe.PExpireAt(ctx, key, s.ExpiresAt)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) Advance(ctx context.Context, familyID, presentedTokenID, newTokenID string, now, newExpiresAt time.Time) (Session, error) {
	res, err := advanceScript.Run(ctx, r.rdb,
		[]string{familyKey(familyID)},
		presentedTokenID,
		newTokenID,
		now.UnixMilli(),
		newExpiresAt.UnixMilli(),
	).Slice()
	if err != nil {
		return Session{}, err
	}
	if len(res) == 0 {
		return Session{}, fmt.Errorf("session: empty script reply")
	}

	status, ok := res[0].(int64)
	if !ok {
		return Session{}, fmt.Errorf("session: unexpected script reply %v", res[0])
	}
	switch status {
	case -1:
		return Session{}, ErrNotFound
	case -2:
		return Session{}, ErrRevoked
	case -3:
		return Session{}, ErrExpired
	case -4:
		return Session{}, ErrTokenMismatch
	}
	if len(res) != 5 {
		return Session{}, fmt.Errorf("session: unexpected script reply length %d", len(res))
	}

	seq, _ := res[1].(int64)
	userID, _ := res[2].(string)
	tenantID, _ := res[3].(string)
	createdMs, err := strconv.ParseInt(fmt.Sprint(res[4]), 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("session: bad created_at in script reply: %w", err)
	}

	return Session{
		FamilyID:  familyID,
		TokenID:   newTokenID,
		UserID:    userID,
		TenantID:  tenantID,
		Sequence:  seq,
		CreatedAt: time.UnixMilli(createdMs).UTC(),
		ExpiresAt: newExpiresAt,
	}, nil
}

func (r *RedisRegistry) RevokeFamily(ctx context.Context, familyID string) error {
	key := familyKey(familyID)
	// Only mark existing families; revocation of an unknown family is a no-op.
	exists, err := r.rdb.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	return r.rdb.HSet(ctx, key, "revoked", "1").Err()
}

func (r *RedisRegistry) Get(ctx context.Context, familyID string) (Session, error) {
	vals, err := r.rdb.HGetAll(ctx, familyKey(familyID)).Result()
	if err != nil {
		return Session{}, err
	}
	if len(vals) == 0 {
		return Session{}, ErrNotFound
	}

	seq, _ := strconv.ParseInt(vals["sequence"], 10, 64)
	createdMs, _ := strconv.ParseInt(vals["created_at"], 10, 64)
	expiresMs, _ := strconv.ParseInt(vals["expires_at"], 10, 64)

	return Session{
		FamilyID:  familyID,
		TokenID:   vals["token_id"],
		UserID:    vals["user_id"],
		TenantID:  vals["tenant_id"],
		Sequence:  seq,
		Revoked:   vals["revoked"] == "1",
		CreatedAt: time.UnixMilli(createdMs).UTC(),
		ExpiresAt: time.UnixMilli(expiresMs).UTC(),
	}, nil
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisTokenBeginScript = redis.NewScript(`
local key = KEYS[1]
local ttl_ms = ARGV[1]

if redis.call("EXISTS", key) == 0 then
  redis.call("HSET", key, "status", "in_progress")
  redis.call("PEXPIRE", key, ttl_ms)
  return {"new"}
end

local status = redis.call("HGET", key, "status")
if status == "completed" then
  return {"replay", redis.call("HGET", key, "outcome") or ""}
end

return {"in_progress"}
`)

var redisTokenCompleteScript = redis.NewScript(`
local key = KEYS[1]
local ttl_ms = ARGV[1]
local outcome = ARGV[2]

redis.call("HSET", key, "status", "completed", "outcome", outcome)
redis.call("PEXPIRE", key, ttl_ms)
return 1
`)

type RedisTokenStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisTokenStore(client redis.UniversalClient, prefix string) *RedisTokenStore {
	if prefix == "" {
		prefix = "payza:ipn"
	}
	return &RedisTokenStore{client: client, prefix: prefix}
}

// redisKey hashes the token so the opaque processor secret never appears
// verbatim in redis.
func (s *RedisTokenStore) redisKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s:%s", s.prefix, hex.EncodeToString(sum[:]))
}

func (s *RedisTokenStore) Begin(ctx context.Context, token string, ttl time.Duration) (TokenBeginResult, error) {
	raw, err := redisTokenBeginScript.Run(
		ctx,
		s.client,
		[]string{s.redisKey(token)},
		int(ttl/time.Millisecond),
	).Result()
	if err != nil {
		return TokenBeginResult{}, err
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) == 0 {
		return TokenBeginResult{}, fmt.Errorf("unexpected redis begin result type")
	}
	switch state := TokenState(asString(values[0])); state {
	case TokenStateNew, TokenStateInProgress:
		return TokenBeginResult{State: state}, nil
	case TokenStateReplay:
		if len(values) < 2 {
			return TokenBeginResult{}, fmt.Errorf("unexpected replay payload")
		}
		return TokenBeginResult{State: TokenStateReplay, Outcome: asString(values[1])}, nil
	default:
		return TokenBeginResult{}, fmt.Errorf("unknown token state %q", state)
	}
}

func (s *RedisTokenStore) Complete(ctx context.Context, token, outcome string, ttl time.Duration) error {
	_, err := redisTokenCompleteScript.Run(
		ctx,
		s.client,
		[]string{s.redisKey(token)},
		int(ttl/time.Millisecond),
		outcome,
	).Result()
	return err
}

func asString(v interface{}) string {
	switch typed := v.(type) {
	case string:
		return typed
	case []byte:
		return string(typed)
	default:
		return fmt.Sprint(v)
	}
}

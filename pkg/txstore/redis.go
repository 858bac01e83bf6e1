package txstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua scripts give us the atomic read-check-mark-consumed sequence Redis
// needs without a WATCH/MULTI retry loop: the consume is one round trip
// and one server-side compare, so two replicas racing on the same code
// can never both win.
var consumeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if raw == false then
	return {err = "not_found"}
end
local rec = cjson.decode(raw)
if rec.Consumed then
	return {err = "consumed"}
end
rec.Consumed = true
rec.ConsumedAt = ARGV[1]
local encoded = cjson.encode(rec)
local ttl = redis.call("TTL", KEYS[1])
if ttl > 0 then
	redis.call("SET", KEYS[1], encoded, "EX", ttl)
else
	redis.call("SET", KEYS[1], encoded)
end
return encoded
`)

const (
	redisKeyPrefixRequest = "takagi:authreq:"
	redisKeyPrefixCode    = "takagi:authcode:"
	redisKeyPrefixChain   = "takagi:refreshchain:"
)

// RedisStore is the horizontally-scalable Store backend: every replica
// reads and writes the same Redis instance, so a transaction created on
// one pod can be consumed on another. Use it whenever Takagi runs with
// more than one replica.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-configured *redis.Client. The caller
// owns the client's lifecycle except that Close also closes it.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func ttlUntil(exp time.Time) time.Duration {
	d := time.Until(exp)
	if d < time.Second {
		return time.Second
	}
	return d
}

func (r *RedisStore) CreateAuthorizationRequest(ctx context.Context, req *AuthorizationRequest) error {
	if req == nil || req.StateRef == "" || req.ExpiresAt.IsZero() {
		return ErrInvalidRequest
	}
	key := redisKeyPrefixRequest + req.StateRef
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("txstore: marshal authorization request: %w", err)
	}
	ok, err := r.client.SetNX(ctx, key, data, ttlUntil(req.ExpiresAt)).Result()
	if err != nil {
		return fmt.Errorf("txstore: redis setnx: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

func (r *RedisStore) GetAuthorizationRequest(ctx context.Context, stateRef string) (*AuthorizationRequest, error) {
	if stateRef == "" {
		return nil, ErrInvalidRequest
	}
	data, err := r.client.Get(ctx, redisKeyPrefixRequest+stateRef).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("txstore: redis get: %w", err)
	}
	var req AuthorizationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("txstore: unmarshal authorization request: %w", err)
	}
	if time.Now().After(req.ExpiresAt) {
		return nil, ErrExpired
	}
	return &req, nil
}

func (r *RedisStore) DeleteAuthorizationRequest(ctx context.Context, stateRef string) error {
	if stateRef == "" {
		return ErrInvalidRequest
	}
	if err := r.client.Del(ctx, redisKeyPrefixRequest+stateRef).Err(); err != nil {
		return fmt.Errorf("txstore: redis del: %w", err)
	}
	return nil
}

func (r *RedisStore) CreateAuthorizationCode(ctx context.Context, code *AuthorizationCode) error {
	if code == nil || code.Code == "" || code.ExpiresAt.IsZero() {
		return ErrInvalidRequest
	}
	key := redisKeyPrefixCode + code.Code
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("txstore: marshal authorization code: %w", err)
	}
	ok, err := r.client.SetNX(ctx, key, data, ttlUntil(code.ExpiresAt)).Result()
	if err != nil {
		return fmt.Errorf("txstore: redis setnx: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

func (r *RedisStore) ConsumeAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error) {
	if code == "" {
		return nil, ErrInvalidRequest
	}
	rec, err := consumeRecord[AuthorizationCode](ctx, r.client, redisKeyPrefixCode+code)
	if err != nil {
		return nil, err
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, ErrExpired
	}
	return rec, nil
}

func (r *RedisStore) CreateRefreshChain(ctx context.Context, chain *RefreshChain) error {
	if chain == nil || chain.ChainID == "" || chain.ExpiresAt.IsZero() {
		return ErrInvalidRequest
	}
	key := redisKeyPrefixChain + chain.ChainID
	data, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("txstore: marshal refresh chain: %w", err)
	}
	ok, err := r.client.SetNX(ctx, key, data, ttlUntil(chain.ExpiresAt)).Result()
	if err != nil {
		return fmt.Errorf("txstore: redis setnx: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

func (r *RedisStore) ConsumeRefreshChain(ctx context.Context, chainID string) (*RefreshChain, error) {
	if chainID == "" {
		return nil, ErrInvalidRequest
	}
	rec, err := consumeRecord[RefreshChain](ctx, r.client, redisKeyPrefixChain+chainID)
	if err != nil {
		return nil, err
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, ErrExpired
	}
	return rec, nil
}

func consumeRecord[T any](ctx context.Context, client *redis.Client, key string) (*T, error) {
	raw, err := consumeScript.Run(ctx, client, []string{key}, time.Now().Format(time.RFC3339Nano)).Result()
	if err != nil {
		switch err.Error() {
		case "not_found":
			return nil, ErrNotFound
		case "consumed":
			return nil, ErrConsumed
		default:
			return nil, fmt.Errorf("txstore: redis consume script: %w", err)
		}
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("txstore: unexpected consume script result type %T", raw)
	}
	var rec T
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return nil, fmt.Errorf("txstore: unmarshal consumed record: %w", err)
	}
	return &rec, nil
}

func (r *RedisStore) Stats(ctx context.Context) (Stats, error) {
	reqCount, err := countKeys(ctx, r.client, redisKeyPrefixRequest+"*")
	if err != nil {
		return Stats{}, err
	}
	codeCount, err := countKeys(ctx, r.client, redisKeyPrefixCode+"*")
	if err != nil {
		return Stats{}, err
	}
	chainCount, err := countKeys(ctx, r.client, redisKeyPrefixChain+"*")
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		AuthorizationRequests: reqCount,
		AuthorizationCodes:    codeCount,
		RefreshChains:         chainCount,
	}, nil
}

func countKeys(ctx context.Context, client *redis.Client, pattern string) (int, error) {
	var count int
	iter := client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("txstore: redis scan: %w", err)
	}
	return count, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

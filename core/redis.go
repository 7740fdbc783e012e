package core

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClientRaw exposes the subset used for heartbeats and status.
type RedisClientRaw interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RedisCredentialStore keeps the credential in a hash, one hash per slot.
type RedisCredentialStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisCredentialStore(client redis.UniversalClient, slot string) *RedisCredentialStore {
	return &RedisCredentialStore{client: client, key: CredentialKeyFor(slot)}
}

func (s *RedisCredentialStore) Get(ctx context.Context) (Credential, bool) {
	vals, err := s.client.HMGet(ctx, s.key, tokenKey, userIDKey).Result()
	if err != nil || len(vals) != 2 {
		return Credential{}, false
	}
	token, _ := vals[0].(string)
	userID, _ := vals[1].(string)
	cred := Credential{Token: token, UserID: userID}
	return cred, cred.Valid()
}

// Set replaces both fields in one transaction so readers never see a mixed pair.
func (s *RedisCredentialStore) Set(ctx context.Context, token, userID string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key)
		p.HSet(ctx, s.key, tokenKey, token, userIDKey, userID)
		return nil
	})
	return err
}

func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

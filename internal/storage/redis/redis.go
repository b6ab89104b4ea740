package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(client), nil
}

func NewWithClient(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

// MarkResetTokenUsed records the jti of a password-reset token. It returns true only
// for the first call with a given jti; the marker lives for ttl.
func (r *RedisRepo) MarkResetTokenUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	const op = "storage.redis.MarkResetTokenUsed"

	first, err := r.client.SetNX(ctx, resetKey(jti), "used", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return first, nil
}

// ReleaseResetToken drops the marker so the token can be redeemed again.
func (r *RedisRepo) ReleaseResetToken(ctx context.Context, jti string) error {
	const op = "storage.redis.ReleaseResetToken"

	if err := r.client.Del(ctx, resetKey(jti)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func resetKey(jti string) string {
	return fmt.Sprintf("reset:used:%s", jti)
}

func (r *RedisRepo) Close() {
	r.client.Close()
}

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "auth:reset:"

// RedisResetTokenStore stores single-use password reset tokens in Redis.
// Only the SHA-256 hash of the token is used as the key, so a Redis dump
// never reveals usable tokens.
type RedisResetTokenStore struct {
	client *redis.Client
}

// NewRedisResetTokenStore creates a reset token store on an existing client
func NewRedisResetTokenStore(client *redis.Client) *RedisResetTokenStore {
	return &RedisResetTokenStore{client: client}
}

// Store saves the token with the given TTL
func (s *RedisResetTokenStore) Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKey(token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// Consume resolves the token to a user ID and deletes it atomically,
// so a token can never be redeemed twice.
func (s *RedisResetTokenStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, shared.NewDomainError("INVALID_TOKEN", "Reset token is invalid or expired")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt reset token payload: %w", err)
	}
	return userID, nil
}

func resetKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return resetKeyPrefix + hex.EncodeToString(sum[:])
}

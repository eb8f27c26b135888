// Package otp provides a redis-backed store for short-lived verification
// codes (email verification, password reset). Codes expire automatically
// through key TTLs; nothing is held in process memory.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// Purpose namespaces codes so a reset code can never verify an email.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email-verify"
	PurposePasswordReset Purpose = "password-reset"
)

// ErrCodeMismatch is returned when no code exists for the key or the
// presented code does not match the stored one.
var ErrCodeMismatch = errors.New("verification code invalid or expired")

// Store issues and verifies single-use codes keyed by (purpose, email).
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a code store. ttl bounds the lifetime of every code.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

func key(purpose Purpose, email string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, email)
}

// Issue generates a fresh 6-digit code for the given purpose and email,
// replacing any previous one, and stores it with the configured TTL.
func (s *Store) Issue(ctx context.Context, purpose Purpose, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.client.Set(ctx, key(purpose, email), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	return code, nil
}

// Verify checks the presented code and consumes it on success. A code can
// be used at most once.
func (s *Store) Verify(ctx context.Context, purpose Purpose, email, code string) error {
	k := key(purpose, email)

	stored, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeMismatch
		}
		return fmt.Errorf("failed to read code: %w", err)
	}

	if stored != code {
		return ErrCodeMismatch
	}

	if err := s.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}

	return nil
}

// generateCode returns a uniformly random 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

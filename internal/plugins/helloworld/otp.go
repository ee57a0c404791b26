package helloworld

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// otpKeyPrefix is the Redis key prefix for pending one-time passwords.
const otpKeyPrefix = "otp:"

// otpDigits is the length of a one-time password.
const otpDigits = 6

// ErrOTPNotFound means no code is pending for the user, either because none
// was issued or because it expired or was used up.
var ErrOTPNotFound = errors.New("no one-time password pending")

// OTPStore issues and checks one-time passwords. Only a hash of the code is
// stored.
type OTPStore interface {
	// Issue creates a fresh code for userID, replacing any pending one.
	Issue(ctx context.Context, userID string) (string, error)

	// Verify checks code against the pending one. A match consumes it. A
	// mismatch uses up one attempt; the code is discarded when none remain.
	Verify(ctx context.Context, userID, code string) (bool, error)
}

// redisOTPStore keeps each code as a hash at otp:<userID> with a TTL.
type redisOTPStore struct {
	redis       *redis.Client
	ttl         time.Duration
	maxAttempts int
}

// NewRedisOTPStore creates an OTP store.
func NewRedisOTPStore(rdb *redis.Client, ttl time.Duration, maxAttempts int) OTPStore {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &redisOTPStore{redis: rdb, ttl: ttl, maxAttempts: maxAttempts}
}

// Issue generates and stores a new code.
func (s *redisOTPStore) Issue(ctx context.Context, userID string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}

	key := otpKeyPrefix + userID
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "hash", hashCode(code), "attempts", s.maxAttempts)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("storing otp: %w", err)
	}
	return code, nil
}

// Verify checks a submitted code.
func (s *redisOTPStore) Verify(ctx context.Context, userID, code string) (bool, error) {
	key := otpKeyPrefix + userID

	stored, err := s.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("reading otp: %w", err)
	}
	if len(stored) == 0 {
		return false, ErrOTPNotFound
	}

	if subtle.ConstantTimeCompare([]byte(stored["hash"]), []byte(hashCode(code))) == 1 {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("consuming otp: %w", err)
		}
		return true, nil
	}

	remaining, err := s.redis.HIncrBy(ctx, key, "attempts", -1).Result()
	if err != nil {
		return false, fmt.Errorf("recording otp attempt: %w", err)
	}
	if remaining <= 0 {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("discarding otp: %w", err)
		}
	}
	return false, nil
}

// generateCode returns a uniformly random zero-padded decimal code.
func generateCode() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(otpDigits), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0"+strconv.Itoa(otpDigits)+"d", n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "casa:session:"

	// sessionTokenBytes of randomness, hex encoded in the cookie.
	sessionTokenBytes = 32
)

// sessionRecord is the Redis hash layout of a session.
type sessionRecord struct {
	UserID    string `redis:"user_id"`
	Email     string `redis:"email"`
	Name      string `redis:"name"`
	IsAdmin   bool   `redis:"is_admin"`
	CreatedAt int64  `redis:"created_at"`
}

// sessionStore keeps sessions as Redis hashes that expire after ttl.
type sessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// create stores a session for user and returns its token.
func (s *sessionStore) create(ctx context.Context, user *User) (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(b)

	rec := &sessionRecord{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.DisplayName,
		IsAdmin:   user.IsAdmin,
		CreatedAt: time.Now().Unix(),
	}
	key := sessionKeyPrefix + token
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, rec)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

// get returns the session for token, or nil when there is none.
func (s *sessionStore) get(ctx context.Context, token string) (*Session, error) {
	res := s.rdb.HGetAll(ctx, sessionKeyPrefix+token)
	fields, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var rec sessionRecord
	if err := res.Scan(&rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if rec.UserID == "" {
		return nil, fmt.Errorf("decoding session: no user id")
	}
	return &Session{
		UserID:    rec.UserID,
		Email:     rec.Email,
		Name:      rec.Name,
		IsAdmin:   rec.IsAdmin,
		CreatedAt: time.Unix(rec.CreatedAt, 0).UTC(),
	}, nil
}

func (s *sessionStore) delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+token).Err()
}

package helloworld

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOTPStore(t *testing.T, maxAttempts int) (OTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisOTPStore(rdb, 5*time.Minute, maxAttempts), mr
}

func TestOTPStore_IssueAndVerify(t *testing.T) {
	store, mr := newTestOTPStore(t, 3)
	ctx := context.Background()

	code, err := store.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	assert.True(t, mr.Exists("otp:u1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("otp:u1"))
	assert.NotEqual(t, code, mr.HGet("otp:u1", "hash"), "code must not be stored in clear")

	ok, err := store.Verify(ctx, "u1", code)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("otp:u1"), "code is consumed")

	_, err = store.Verify(ctx, "u1", code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestOTPStore_WrongCodeUsesAttempts(t *testing.T) {
	store, mr := newTestOTPStore(t, 2)
	ctx := context.Background()

	code, err := store.Issue(ctx, "u1")
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	ok, err := store.Verify(ctx, "u1", wrong)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "1", mr.HGet("otp:u1", "attempts"))

	ok, err = store.Verify(ctx, "u1", wrong)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("otp:u1"), "code burned after last attempt")

	_, err = store.Verify(ctx, "u1", code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestOTPStore_ReissueReplaces(t *testing.T) {
	store, _ := newTestOTPStore(t, 3)
	ctx := context.Background()

	first, err := store.Issue(ctx, "u1")
	require.NoError(t, err)
	second, err := store.Issue(ctx, "u1")
	require.NoError(t, err)

	if first != second {
		ok, err := store.Verify(ctx, "u1", first)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := store.Verify(ctx, "u1", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOTPStore_Expiry(t *testing.T) {
	store, mr := newTestOTPStore(t, 3)
	ctx := context.Background()

	code, err := store.Issue(ctx, "u1")
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)

	_, err = store.Verify(ctx, "u1", code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestOTPStore_UsersAreIsolated(t *testing.T) {
	store, _ := newTestOTPStore(t, 3)
	ctx := context.Background()

	code, err := store.Issue(ctx, "u1")
	require.NoError(t, err)

	_, err = store.Verify(ctx, "u2", code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Len(t, code, otpDigits)
	}
}

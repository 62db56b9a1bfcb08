package mfa_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codinglibs/mfa"
)

func TestMemoryStore_ConsumeChallengeOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mfa.NewMemoryStore()
	owner := mfa.OwnerRef{Realm: "users", ID: "u1"}
	now := time.Now()

	challenge := &mfa.Challenge{
		ID:        uuid.New(),
		Owner:     owner,
		Method:    "email",
		Code:      "123456",
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	require.NoError(t, store.CreateChallenge(ctx, challenge))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := store.ConsumeChallenge(ctx, challenge.ID, now)
			assert.NoError(t, err)
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load(), "exactly one consumer may win")
}

func TestMemoryStore_ConsumeRecoveryCodeOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mfa.NewMemoryStore()
	owner := mfa.OwnerRef{Realm: "users", ID: "u1"}
	now := time.Now()

	require.NoError(t, store.CreateRecoveryCodes(ctx, []mfa.RecoveryCode{
		{ID: uuid.New(), Owner: owner, CodeHash: "hash-1", CreatedAt: now},
	}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := store.ConsumeRecoveryCode(ctx, owner, "hash-1", now)
			assert.NoError(t, err)
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestMemoryStore_LatestActiveChallenge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mfa.NewMemoryStore()
	owner := mfa.OwnerRef{Realm: "users", ID: "u1"}
	now := time.Now()

	older := &mfa.Challenge{
		ID: uuid.New(), Owner: owner, Method: "email", Code: "111111",
		ExpiresAt: now.Add(5 * time.Minute), CreatedAt: now.Add(-2 * time.Second),
	}
	newer := &mfa.Challenge{
		ID: uuid.New(), Owner: owner, Method: "email", Code: "222222",
		ExpiresAt: now.Add(5 * time.Minute), CreatedAt: now.Add(-time.Second),
	}
	expired := &mfa.Challenge{
		ID: uuid.New(), Owner: owner, Method: "email", Code: "333333",
		ExpiresAt: now.Add(-time.Minute), CreatedAt: now,
	}
	for _, ch := range []*mfa.Challenge{older, newer, expired} {
		require.NoError(t, store.CreateChallenge(ctx, ch))
	}

	got, err := store.LatestActiveChallenge(ctx, owner, "email", now)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID, "expired challenges must not shadow active ones")

	_, err = store.LatestActiveChallenge(ctx, owner, "sms", now)
	assert.ErrorIs(t, err, mfa.ErrNotFound)
}

func TestMemoryStore_ConsumedChallengeNoLongerActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mfa.NewMemoryStore()
	owner := mfa.OwnerRef{Realm: "users", ID: "u1"}
	now := time.Now()

	challenge := &mfa.Challenge{
		ID: uuid.New(), Owner: owner, Method: "email", Code: "123456",
		ExpiresAt: now.Add(5 * time.Minute), CreatedAt: now,
	}
	require.NoError(t, store.CreateChallenge(ctx, challenge))

	won, err := store.ConsumeChallenge(ctx, challenge.ID, now)
	require.NoError(t, err)
	require.True(t, won)

	_, err = store.LatestActiveChallenge(ctx, owner, "email", now)
	assert.ErrorIs(t, err, mfa.ErrNotFound)
}

func TestMemoryStore_DuplicateDeviceToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mfa.NewMemoryStore()
	owner := mfa.OwnerRef{Realm: "users", ID: "u1"}
	now := time.Now()

	first := &mfa.RememberedDevice{
		ID: uuid.New(), Owner: owner, TokenHash: "hash-1",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}
	require.NoError(t, store.CreateRememberedDevice(ctx, first))

	dup := &mfa.RememberedDevice{
		ID: uuid.New(), Owner: owner, TokenHash: "hash-1",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}
	assert.ErrorIs(t, store.CreateRememberedDevice(ctx, dup), mfa.ErrDuplicateToken)

	// The same hash under another owner is fine.
	other := &mfa.RememberedDevice{
		ID: uuid.New(), Owner: mfa.OwnerRef{Realm: "users", ID: "u2"}, TokenHash: "hash-1",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}
	assert.NoError(t, store.CreateRememberedDevice(ctx, other))
}

func TestMemoryStore_RejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mfa.NewMemoryStore()

	assert.ErrorIs(t, store.UpsertMethod(ctx, &mfa.Method{}), mfa.ErrInvalidRecord)
	assert.ErrorIs(t, store.CreateChallenge(ctx, &mfa.Challenge{}), mfa.ErrInvalidRecord)
	assert.ErrorIs(t, store.CreateRememberedDevice(ctx, &mfa.RememberedDevice{}), mfa.ErrInvalidRecord)
	assert.ErrorIs(t, store.CreateRecoveryCodes(ctx, []mfa.RecoveryCode{{}}), mfa.ErrInvalidRecord)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mfa.NewMemoryStore()
	owner := mfa.OwnerRef{Realm: "users", ID: "u1"}

	method := &mfa.Method{ID: uuid.New(), Owner: owner, Name: "totp", Secret: "original"}
	require.NoError(t, store.UpsertMethod(ctx, method))

	got, err := store.GetMethod(ctx, owner, "totp")
	require.NoError(t, err)
	got.Secret = "mutated"

	again, err := store.GetMethod(ctx, owner, "totp")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Secret)
}

package mfa_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codinglibs/mfa"
	"github.com/codinglibs/mfa/pkg/secrets"
	"github.com/codinglibs/mfa/pkg/totp"
)

func TestSetupTOTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acct := testAccount{realm: "users", id: "u1", email: "alice@example.com"}

	t.Run("enrolls and enables the totp method", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		setup, err := svc.SetupTOTP(ctx, acct)
		require.NoError(t, err)

		assert.NotEmpty(t, setup.Secret)
		assert.Contains(t, setup.OtpAuthURI, "otpauth://totp/")
		assert.Contains(t, setup.OtpAuthURI, "secret="+setup.Secret)
		assert.Contains(t, setup.OtpAuthURI, "alice%40example.com")

		enabled, err := svc.IsMethodEnabled(ctx, acct, mfa.MethodTOTP)
		require.NoError(t, err)
		assert.True(t, enabled)
	})

	t.Run("label falls back to the owner ID", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		setup, err := svc.SetupTOTP(ctx, bareAccount{id: "u42"})
		require.NoError(t, err)
		assert.Contains(t, setup.OtpAuthURI, "otpauth://totp/u42?")
	})

	t.Run("issuer and label overrides", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		setup, err := svc.SetupTOTP(ctx, acct,
			mfa.WithIssuer("Acme"),
			mfa.WithLabel("work"),
		)
		require.NoError(t, err)
		assert.Contains(t, setup.OtpAuthURI, "otpauth://totp/work?")
		assert.Contains(t, setup.OtpAuthURI, "issuer=Acme")
	})

	t.Run("re-enrollment replaces the secret", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		first, err := svc.SetupTOTP(ctx, acct)
		require.NoError(t, err)
		second, err := svc.SetupTOTP(ctx, acct)
		require.NoError(t, err)
		require.NotEqual(t, first.Secret, second.Secret)

		ok, err := svc.VerifyTOTP(ctx, acct, totp.CodeAt(first.Secret, 6, 30, clock.Now()))
		require.NoError(t, err)
		assert.False(t, ok, "codes from the replaced secret must not verify")

		ok, err = svc.VerifyTOTP(ctx, acct, totp.CodeAt(second.Secret, 6, 30, clock.Now()))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestVerifyTOTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acct := testAccount{realm: "users", id: "u1", email: "alice@example.com"}

	t.Run("valid code within window", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		setup, err := svc.SetupTOTP(ctx, acct)
		require.NoError(t, err)

		ok, err := svc.VerifyTOTP(ctx, acct, totp.CodeAt(setup.Secret, 6, 30, clock.Now()))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("accepts drift of one period", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		setup, err := svc.SetupTOTP(ctx, acct)
		require.NoError(t, err)

		previous := totp.CodeAt(setup.Secret, 6, 30, clock.Now().Add(-30*time.Second))
		ok, err := svc.VerifyTOTP(ctx, acct, previous)
		require.NoError(t, err)
		assert.True(t, ok)

		next := totp.CodeAt(setup.Secret, 6, 30, clock.Now().Add(30*time.Second))
		ok, err = svc.VerifyTOTP(ctx, acct, next)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects codes outside the window", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		setup, err := svc.SetupTOTP(ctx, acct)
		require.NoError(t, err)

		stale := totp.CodeAt(setup.Secret, 6, 30, clock.Now().Add(-5*time.Minute))
		fresh := totp.CodeAt(setup.Secret, 6, 30, clock.Now())
		if stale == fresh {
			t.Skip("stale code happens to collide with the current one")
		}

		ok, err := svc.VerifyTOTP(ctx, acct, stale)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unenrolled account is a plain failure", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		ok, err := svc.VerifyTOTP(ctx, acct, "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("success refreshes last-used time", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		setup, err := svc.SetupTOTP(ctx, acct)
		require.NoError(t, err)

		clock.Advance(time.Minute)
		ok, err := svc.VerifyTOTP(ctx, acct, totp.CodeAt(setup.Secret, 6, 30, clock.Now()))
		require.NoError(t, err)
		require.True(t, ok)

		method, err := svc.GetMethod(ctx, acct, mfa.MethodTOTP)
		require.NoError(t, err)
		require.NotNil(t, method.LastUsedAt)
		assert.Equal(t, clock.Now(), *method.LastUsedAt)
	})
}

func TestTOTP_SecretEncryptedAtRest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acct := testAccount{realm: "users", id: "u1", email: "alice@example.com"}

	cipher, err := secrets.NewCipher(bytes.Repeat([]byte{0x2a}, 32))
	require.NoError(t, err)

	store := mfa.NewMemoryStore()
	clock := newTestClock()
	svc, err := mfa.New(mfa.DefaultConfig(), store,
		mfa.WithClock(clock.Now),
		mfa.WithSecretCipher(cipher),
	)
	require.NoError(t, err)

	setup, err := svc.SetupTOTP(ctx, acct)
	require.NoError(t, err)

	method, err := store.GetMethod(ctx, acct.MFAOwner(), mfa.MethodTOTP)
	require.NoError(t, err)
	assert.NotEqual(t, setup.Secret, method.Secret)
	assert.NotContains(t, method.Secret, setup.Secret)

	ok, err := svc.VerifyTOTP(ctx, acct, totp.CodeAt(setup.Secret, 6, 30, clock.Now()))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTOTPQRCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acct := testAccount{realm: "users", id: "u1", email: "alice@example.com"}

	t.Run("renders a PNG data URI", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		_, err := svc.SetupTOTP(ctx, acct)
		require.NoError(t, err)

		uri, err := svc.TOTPQRCode(ctx, acct, 256)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"), uri[:32])
	})

	t.Run("unenrolled account", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		_, err := svc.TOTPQRCode(ctx, acct, 256)
		assert.ErrorIs(t, err, mfa.ErrTOTPNotConfigured)
	})
}

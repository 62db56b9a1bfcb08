package mfa_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codinglibs/mfa"
)

func TestRememberDevice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acct := testAccount{realm: "users", id: "u1"}

	t.Run("issues a grant with the token hashed at rest", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		grant, err := svc.RememberDevice(ctx, acct, mfa.WithDeviceName("laptop"))
		require.NoError(t, err)
		require.NotNil(t, grant)

		assert.NotEmpty(t, grant.Token)
		assert.NotEqual(t, grant.Token, grant.Device.TokenHash)
		assert.Equal(t, "laptop", grant.Device.DeviceName)
		assert.Equal(t, clock.Now().Add(30*24*time.Hour), grant.Device.ExpiresAt)
	})

	t.Run("cookie spec mirrors configuration", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)

		cookie := grant.Cookie
		assert.Equal(t, "mfa_rd", cookie.Name)
		assert.Equal(t, grant.Token, cookie.Value)
		assert.Equal(t, "/", cookie.Path)
		assert.True(t, cookie.HTTPOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, clock.Now().Add(30*24*time.Hour), cookie.ExpiresAt)
		assert.Equal(t, int(30*24*time.Hour/time.Second), cookie.MaxAge)

		std := cookie.Cookie()
		assert.Equal(t, "mfa_rd", std.Name)
		assert.True(t, std.HttpOnly)
	})

	t.Run("secure auto follows request transport", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		insecure, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)
		assert.False(t, insecure.Cookie.Secure, "no request meta means no Secure flag")

		secure, err := svc.RememberDevice(ctx, acct,
			mfa.WithRequestMeta(mfa.RequestMeta{Secure: true}),
		)
		require.NoError(t, err)
		assert.True(t, secure.Cookie.Secure)
	})

	t.Run("secure always", func(t *testing.T) {
		t.Parallel()

		cfg := mfa.DefaultConfig()
		cfg.Remember.Secure = mfa.SecureAlways
		svc, err := mfa.New(cfg, mfa.NewMemoryStore())
		require.NoError(t, err)

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)
		assert.True(t, grant.Cookie.Secure)
	})

	t.Run("lifetime override", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		grant, err := svc.RememberDevice(ctx, acct, mfa.WithLifetime(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, clock.Now().Add(time.Hour), grant.Device.ExpiresAt)
	})

	t.Run("request meta is stored on the grant", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		grant, err := svc.RememberDevice(ctx, acct, mfa.WithRequestMeta(mfa.RequestMeta{
			UserAgent: "Mozilla/5.0",
			IPAddress: "203.0.113.7",
		}))
		require.NoError(t, err)
		assert.Equal(t, "Mozilla/5.0", grant.Device.UserAgent)
		assert.Equal(t, "203.0.113.7", grant.Device.IPAddress)
	})

	t.Run("disabled feature yields nil grant", func(t *testing.T) {
		t.Parallel()

		cfg := mfa.DefaultConfig()
		cfg.Remember.Enabled = false
		svc, err := mfa.New(cfg, mfa.NewMemoryStore())
		require.NoError(t, err)

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)
		assert.Nil(t, grant)
	})
}

func TestShouldSkipVerification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acct := testAccount{realm: "users", id: "u1"}

	t.Run("valid token skips", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)

		ok, err := svc.ShouldSkipVerification(ctx, acct, grant.Token)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired token does not skip", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)

		clock.Advance(30*24*time.Hour + time.Second)

		ok, err := svc.ShouldSkipVerification(ctx, acct, grant.Token)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown and empty tokens do not skip", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		ok, err := svc.ShouldSkipVerification(ctx, acct, "not-a-token")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = svc.ShouldSkipVerification(ctx, acct, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("token is bound to its owner", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)
		other := testAccount{realm: "users", id: "u2"}

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)

		ok, err := svc.ShouldSkipVerification(ctx, other, grant.Token)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hit refreshes last-used metadata", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(t)

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)

		clock.Advance(time.Hour)
		ok, err := svc.ShouldSkipVerification(ctx, acct, grant.Token,
			mfa.WithRequestMeta(mfa.RequestMeta{UserAgent: "curl/8.0", IPAddress: "198.51.100.4"}),
		)
		require.NoError(t, err)
		require.True(t, ok)

		devices, err := svc.ListRememberedDevices(ctx, acct)
		require.NoError(t, err)
		require.Len(t, devices, 1)
		require.NotNil(t, devices[0].LastUsedAt)
		assert.Equal(t, clock.Now(), *devices[0].LastUsedAt)
		assert.Equal(t, "curl/8.0", devices[0].UserAgent)
		assert.Equal(t, "198.51.100.4", devices[0].IPAddress)
	})

	t.Run("disabled feature never skips", func(t *testing.T) {
		t.Parallel()

		cfg := mfa.DefaultConfig()
		svc, err := mfa.New(cfg, mfa.NewMemoryStore())
		require.NoError(t, err)

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)

		cfg.Remember.Enabled = false
		disabled, err := mfa.New(cfg, mfa.NewMemoryStore())
		require.NoError(t, err)

		ok, err := disabled.ShouldSkipVerification(ctx, acct, grant.Token)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestForgetRememberedDevice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acct := testAccount{realm: "users", id: "u1"}

	t.Run("revokes the grant", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		grant, err := svc.RememberDevice(ctx, acct)
		require.NoError(t, err)

		deleted, err := svc.ForgetRememberedDevice(ctx, acct, grant.Token)
		require.NoError(t, err)
		assert.EqualValues(t, 1, deleted)

		ok, err := svc.ShouldSkipVerification(ctx, acct, grant.Token)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("forgetting an unknown token is a no-op", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		deleted, err := svc.ForgetRememberedDevice(ctx, acct, "gone")
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

func TestListRememberedDevices(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acct := testAccount{realm: "users", id: "u1"}

	svc, clock := newTestService(t)

	_, err := svc.RememberDevice(ctx, acct, mfa.WithDeviceName("laptop"))
	require.NoError(t, err)
	_, err = svc.RememberDevice(ctx, acct, mfa.WithDeviceName("phone"), mfa.WithLifetime(time.Hour))
	require.NoError(t, err)

	devices, err := svc.ListRememberedDevices(ctx, acct)
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	// The short-lived grant drops out of the listing once expired.
	clock.Advance(2 * time.Hour)
	devices, err = svc.ListRememberedDevices(ctx, acct)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "laptop", devices[0].DeviceName)
}

func TestRememberCookieName(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	assert.Equal(t, "mfa_rd", svc.RememberCookieName())
}

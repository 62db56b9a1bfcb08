package mfa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/codinglibs/mfa/pkg/logger"
)

// rememberTokenBytes is the entropy of a device trust token (256 bits).
const rememberTokenBytes = 32

// CookieSpec describes the remember-me cookie for the host's HTTP layer.
// This library never sets headers itself; the host writes the cookie.
type CookieSpec struct {
	Name      string
	Value     string
	ExpiresAt time.Time
	MaxAge    int // seconds
	Path      string
	Domain    string
	Secure    bool
	HTTPOnly  bool
	SameSite  http.SameSite
}

// Cookie converts the spec into a standard library cookie.
func (c CookieSpec) Cookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Expires:  c.ExpiresAt,
		MaxAge:   c.MaxAge,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	}
}

// DeviceGrant is the result of remembering a device: the plaintext bearer
// token (returned exactly once), the stored record, and the cookie spec
// carrying the token to the client.
type DeviceGrant struct {
	Token  string
	Device *RememberedDevice
	Cookie CookieSpec
}

// RememberOption adjusts a remember-device call.
type RememberOption func(*rememberParams)

type rememberParams struct {
	lifetime   time.Duration
	deviceName string
	meta       RequestMeta
	hasMeta    bool
}

// WithDeviceName attaches a user-facing device label to the grant.
func WithDeviceName(name string) RememberOption {
	return func(p *rememberParams) { p.deviceName = name }
}

// WithLifetime overrides the configured trust lifetime for this grant.
func WithLifetime(lifetime time.Duration) RememberOption {
	return func(p *rememberParams) {
		if lifetime > 0 {
			p.lifetime = lifetime
		}
	}
}

// WithRequestMeta supplies request context: user agent and IP stored on the
// grant, and transport security used to resolve the cookie Secure flag in
// "auto" mode.
func WithRequestMeta(meta RequestMeta) RememberOption {
	return func(p *rememberParams) {
		p.meta = meta
		p.hasMeta = true
	}
}

// RememberDevice issues a trust grant that lets ShouldSkipVerification
// bypass MFA for this device until the grant expires or is forgotten. Only
// the token hash is persisted. Returns nil when the remember feature is
// disabled.
func (s *Service) RememberDevice(ctx context.Context, account Account, opts ...RememberOption) (*DeviceGrant, error) {
	if !s.cfg.Remember.Enabled {
		return nil, nil
	}

	params := rememberParams{lifetime: s.cfg.Remember.Lifetime}
	for _, opt := range opts {
		opt(&params)
	}

	token, err := randomToken(rememberTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	lastUsed := now
	device := &RememberedDevice{
		ID:         uuid.New(),
		Owner:      account.MFAOwner(),
		TokenHash:  hashToken(token),
		DeviceName: params.deviceName,
		UserAgent:  params.meta.UserAgent,
		IPAddress:  params.meta.IPAddress,
		ExpiresAt:  now.Add(params.lifetime),
		LastUsedAt: &lastUsed,
		CreatedAt:  now,
	}

	if err := s.store.CreateRememberedDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("persisting remembered device: %w", err)
	}

	s.logger.InfoContext(ctx, "device remembered",
		logger.Component("remember"),
		logger.Owner(device.Owner.String()),
	)

	return &DeviceGrant{
		Token:  token,
		Device: device,
		Cookie: s.rememberCookie(token, device.ExpiresAt, params),
	}, nil
}

// rememberCookie builds the cookie spec from configuration. The Secure flag
// follows the configured mode; "auto" mirrors the ambient request's
// transport security and stays off when no request meta was supplied.
func (s *Service) rememberCookie(token string, expiresAt time.Time, params rememberParams) CookieSpec {
	secure := false
	switch s.cfg.Remember.Secure {
	case SecureAlways:
		secure = true
	case SecureAuto:
		secure = params.hasMeta && params.meta.Secure
	}

	// Config is validated at construction, the error path is unreachable.
	sameSite, _ := parseSameSite(s.cfg.Remember.SameSite)

	return CookieSpec{
		Name:      s.cfg.Remember.CookieName,
		Value:     token,
		ExpiresAt: expiresAt,
		MaxAge:    int(expiresAt.Sub(s.now()) / time.Second),
		Path:      s.cfg.Remember.Path,
		Domain:    s.cfg.Remember.Domain,
		Secure:    secure,
		HTTPOnly:  s.cfg.Remember.HTTPOnly,
		SameSite:  sameSite,
	}
}

// RememberCookieName returns the configured cookie name so hosts can read
// the presented token from incoming requests.
func (s *Service) RememberCookieName() string {
	return s.cfg.Remember.CookieName
}

// ShouldSkipVerification reports whether the presented token matches an
// unexpired trust grant for the account. On a hit the grant's last-used time
// and request metadata are refreshed. Expired or unknown tokens, an empty
// token, and a disabled remember feature all answer false.
func (s *Service) ShouldSkipVerification(ctx context.Context, account Account, token string, opts ...RememberOption) (bool, error) {
	if !s.cfg.Remember.Enabled || token == "" {
		return false, nil
	}

	var params rememberParams
	for _, opt := range opts {
		opt(&params)
	}

	owner := account.MFAOwner()
	now := s.now()

	device, err := s.store.FindRememberedDevice(ctx, owner, hashToken(token), now)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up remembered device: %w", err)
	}

	if err := s.store.TouchRememberedDevice(ctx, device.ID, now, params.meta.UserAgent, params.meta.IPAddress); err != nil {
		// Trust already established; stale bookkeeping is not a reason to
		// force re-verification.
		s.logger.ErrorContext(ctx, "failed to refresh remembered device",
			logger.Component("remember"),
			logger.Owner(owner.String()),
			logger.Error(err),
		)
	}

	return true, nil
}

// ForgetRememberedDevice revokes the grant matching the presented token and
// reports how many records were deleted. Forgetting an unknown token is not
// an error; the result is simply zero.
func (s *Service) ForgetRememberedDevice(ctx context.Context, account Account, token string) (int64, error) {
	if !s.cfg.Remember.Enabled || token == "" {
		return 0, nil
	}

	deleted, err := s.store.DeleteRememberedDevice(ctx, account.MFAOwner(), hashToken(token))
	if err != nil {
		return 0, fmt.Errorf("deleting remembered device: %w", err)
	}
	return deleted, nil
}

// ListRememberedDevices returns the account's active trust grants for
// device-management pages.
func (s *Service) ListRememberedDevices(ctx context.Context, account Account) ([]RememberedDevice, error) {
	if !s.cfg.Remember.Enabled {
		return nil, nil
	}

	devices, err := s.store.ListRememberedDevices(ctx, account.MFAOwner(), s.now())
	if err != nil {
		return nil, fmt.Errorf("listing remembered devices: %w", err)
	}
	return devices, nil
}

package mfa

import (
	"context"
	"errors"
	"fmt"

	"github.com/codinglibs/mfa/pkg/logger"
	"github.com/codinglibs/mfa/pkg/qrcode"
	"github.com/codinglibs/mfa/pkg/totp"
)

// MethodTOTP is the ledger name of the time-based one-time password factor.
const MethodTOTP = "totp"

// TOTPSetup is the one-time result of enrollment. The plaintext secret and
// URI are shown to the user once and are not retrievable later; only the
// encrypted secret is stored.
type TOTPSetup struct {
	Secret     string
	OtpAuthURI string
}

// TOTPSetupOption overrides enrollment parameters.
type TOTPSetupOption func(*totpSetupParams)

type totpSetupParams struct {
	issuer string
	label  string
}

// WithIssuer overrides the configured issuer for this enrollment.
func WithIssuer(issuer string) TOTPSetupOption {
	return func(p *totpSetupParams) { p.issuer = issuer }
}

// WithLabel overrides the account label shown in the authenticator app.
func WithLabel(label string) TOTPSetupOption {
	return func(p *totpSetupParams) { p.label = label }
}

// SetupTOTP generates a fresh secret for the account, stores it encrypted,
// enables the totp method and returns the secret with its otpauth URI for
// authenticator onboarding. Calling it again replaces the previous secret.
func (s *Service) SetupTOTP(ctx context.Context, account Account, opts ...TOTPSetupOption) (*TOTPSetup, error) {
	owner := account.MFAOwner()

	params := totpSetupParams{
		issuer: s.cfg.TOTP.Issuer,
		label:  s.totpLabel(account, owner),
	}
	for _, opt := range opts {
		opt(&params)
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	uri, err := totp.OtpAuthURI(totp.URIParams{
		Secret: secret,
		Label:  params.label,
		Issuer: params.issuer,
		Digits: s.cfg.TOTP.Digits,
		Period: s.cfg.TOTP.Period,
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(owner.Realm, secret)
	if err != nil {
		return nil, errors.Join(ErrSecretUnavailable, err)
	}

	if _, err := s.enableMethod(ctx, owner, MethodTOTP, encrypted); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "TOTP enrolled",
		logger.Component("totp"),
		logger.Owner(owner.String()),
	)

	return &TOTPSetup{Secret: secret, OtpAuthURI: uri}, nil
}

// VerifyTOTP checks a submitted code against the account's stored secret
// within the configured time window. A missing or secretless totp record is
// a plain verification failure, not an error. On success the method's
// last-used timestamp is refreshed.
func (s *Service) VerifyTOTP(ctx context.Context, account Account, code string) (bool, error) {
	owner := account.MFAOwner()

	method, err := s.store.GetMethod(ctx, owner, MethodTOTP)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading totp record: %w", err)
	}
	if method.Secret == "" {
		return false, nil
	}

	secret, err := s.cipher.Decrypt(owner.Realm, method.Secret)
	if err != nil {
		return false, errors.Join(ErrSecretUnavailable, err)
	}

	ok := totp.VerifyCodeAt(secret, code, s.cfg.TOTP.Digits, s.cfg.TOTP.Period, s.cfg.TOTP.Window, s.now())
	if !ok {
		return false, nil
	}

	now := s.now()
	method.LastUsedAt = &now
	method.UpdatedAt = now
	if err := s.store.UpsertMethod(ctx, method); err != nil {
		// The code verified; losing the bookkeeping update is not a failure
		// the caller can act on.
		s.logger.ErrorContext(ctx, "failed to update totp last-used time",
			logger.Component("totp"),
			logger.Owner(owner.String()),
			logger.Error(err),
		)
	}
	return true, nil
}

// TOTPQRCode renders the account's enrollment URI as a base64 PNG data URI
// for embedding in setup pages. Returns ErrTOTPNotConfigured when the
// account has no stored secret.
func (s *Service) TOTPQRCode(ctx context.Context, account Account, size int, opts ...TOTPSetupOption) (string, error) {
	owner := account.MFAOwner()

	method, err := s.store.GetMethod(ctx, owner, MethodTOTP)
	if errors.Is(err, ErrNotFound) {
		return "", ErrTOTPNotConfigured
	}
	if err != nil {
		return "", fmt.Errorf("loading totp record: %w", err)
	}
	if method.Secret == "" {
		return "", ErrTOTPNotConfigured
	}

	secret, err := s.cipher.Decrypt(owner.Realm, method.Secret)
	if err != nil {
		return "", errors.Join(ErrSecretUnavailable, err)
	}

	params := totpSetupParams{
		issuer: s.cfg.TOTP.Issuer,
		label:  s.totpLabel(account, owner),
	}
	for _, opt := range opts {
		opt(&params)
	}

	uri, err := totp.OtpAuthURI(totp.URIParams{
		Secret: secret,
		Label:  params.label,
		Issuer: params.issuer,
		Digits: s.cfg.TOTP.Digits,
		Period: s.cfg.TOTP.Period,
	})
	if err != nil {
		return "", err
	}

	return qrcode.GenerateDataURI(uri, size)
}

// totpLabel picks the authenticator label: the account's email when it
// exposes one, otherwise the opaque owner ID.
func (s *Service) totpLabel(account Account, owner OwnerRef) string {
	if p, ok := account.(EmailAddressProvider); ok {
		if email := p.MFAEmailAddress(); email != "" {
			return email
		}
	}
	return owner.ID
}

// Package mfa implements multi-factor authentication primitives for a host
// application's accounts: time-based one-time passwords (TOTP), out-of-band
// challenge codes delivered through pluggable channels, remembered-device
// trust tokens, and single-use recovery codes.
//
// The package is a library, not a server. A host constructs one long-lived
// Service around a Store implementation and calls it from its own request
// handlers; session management, rate limiting and HTTP transport stay with
// the host.
//
// # Architecture
//
// Service is a facade over four engines sharing one storage collaborator,
// all keyed by OwnerRef (an opaque realm/id pair identifying the protected
// account):
//
//   - TOTP: enrollment (SetupTOTP, TOTPQRCode) and verification (VerifyTOTP)
//     built on pkg/totp and pkg/hotp; secrets are encrypted at rest through
//     the pluggable SecretCipher (pkg/secrets).
//   - Challenges: short-lived numeric codes issued per (owner, method) and
//     delivered through the ChannelRegistry (GenerateChallenge,
//     IssueChallenge, VerifyChallenge). Consumption is single-use and
//     atomic.
//   - Remembered devices: hashed bearer tokens with TTL (RememberDevice,
//     ShouldSkipVerification, ForgetRememberedDevice); the host transports
//     the token via the returned CookieSpec.
//   - Recovery codes: batches of single-use backup codes stored as hashes
//     (GenerateRecoveryCodes, VerifyRecoveryCode), with optional
//     replenish-on-use.
//
// A method-enablement ledger (EnableMethod, DisableMethod, IsMethodEnabled)
// records which factors an account has active.
//
// # Usage
//
//	cfg, err := mfa.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	svc, err := mfa.New(cfg, store,
//	    mfa.WithChannels(emailChannel, smsChannel),
//	    mfa.WithSecretCipher(cipher),
//	    mfa.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Enroll TOTP and show the QR code:
//	setup, err := svc.SetupTOTP(ctx, account)
//
//	// Or issue an out-of-band code:
//	_, err = svc.IssueChallenge(ctx, account, "email")
//	ok, err := svc.VerifyChallenge(ctx, account, "email", submitted)
//
// # Error Handling
//
// Three failure shapes are deliberately distinct: configuration errors fail
// at construction (ErrInvalidConfig, ErrUnknownChannelType); inapplicable
// operations return typed negative results (ErrUnknownMethod, ErrNotFound,
// ErrTOTPNotConfigured); and verification failures are a plain (false, nil)
// that never reveals which part of the input was wrong.
//
// # Security Notes
//
// All random material comes from crypto/rand; code and token comparisons are
// constant-time; bearer tokens and recovery codes are persisted only as
// hashes. Brute-force lockout is intentionally out of scope and must be
// provided by the host (e.g. attempt counters in front of the verify calls).
package mfa

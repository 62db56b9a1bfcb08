package totp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/codinglibs/mfa/pkg/hotp"
)

const (
	DefaultDigits = 6  // Standard 6-digit TOTP codes
	DefaultPeriod = 30 // 30-second validity window (RFC 6238 standard)
	DefaultWindow = 1  // Accept one period of clock drift in either direction

	// SecretLength is the number of random bytes in a generated secret
	// (160 bits, the RFC 4226 recommendation).
	SecretLength = 20
)

// GenerateSecret creates a new shared secret as standard base32 without
// padding, compatible with Google Authenticator and other RFC 6238 apps.
func GenerateSecret() (string, error) {
	secret := make([]byte, SecretLength)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecret, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// URIParams contains the parameters for otpauth URI construction.
type URIParams struct {
	Secret string // Base32-encoded shared secret (required)
	Label  string // Account label shown in authenticator apps, e.g. an email (required)
	Issuer string // Service name shown in authenticator apps (required)
	Digits int    // Code length (optional, defaults to 6)
	Period int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures the required URI parameters are present.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if p.Label == "" {
		return ErrMissingLabel
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

func (p URIParams) withDefaults() URIParams {
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// OtpAuthURI builds a Key Uri Format string for onboarding authenticator apps:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
//
// Label and issuer are percent-encoded; the secret is emitted verbatim since
// the base32 alphabet contains no reserved characters.
func OtpAuthURI(params URIParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	params = params.withDefaults()

	return fmt.Sprintf("otpauth://totp/%s?secret=%s&issuer=%s&digits=%d&period=%d",
		url.PathEscape(params.Label),
		params.Secret,
		url.QueryEscape(params.Issuer),
		params.Digits,
		params.Period,
	), nil
}

// VerifyCode checks a submitted code against the secret for the current time.
// See VerifyCodeAt for the matching rules.
func VerifyCode(secret, code string, digits, period, window int) bool {
	return VerifyCodeAt(secret, code, digits, period, window, time.Now())
}

// VerifyCodeAt reports whether the submitted code matches the secret within
// the given time window. The time slice is floor(at/period); every slice in
// [-window, +window] around it is checked. A window of 0 accepts only the
// exact slice, 1 tolerates one period of clock drift in either direction.
//
// All candidate slices are compared in constant time and the loop never exits
// early, so verification timing does not reveal which slice matched.
func VerifyCodeAt(secret, code string, digits, period, window int, at time.Time) bool {
	if digits <= 0 {
		digits = DefaultDigits
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	if window < 0 {
		window = 0
	}

	key := hotp.DecodeBase32(secret)
	if len(key) == 0 {
		return false
	}

	code = strings.TrimSpace(code)
	if len(code) < digits {
		code = strings.Repeat("0", digits-len(code)) + code
	}

	timeSlice := at.Unix() / int64(period)

	match := 0
	for i := -window; i <= window; i++ {
		candidate := hotp.Code(key, uint64(timeSlice+int64(i)), digits)
		match |= subtle.ConstantTimeCompare([]byte(candidate), []byte(code))
	}
	return match == 1
}

// Code derives the code for the current time slice. Intended for hosts that
// display or cross-check codes; verification should go through VerifyCode.
func Code(secret string, digits, period int) string {
	return CodeAt(secret, digits, period, time.Now())
}

// CodeAt derives the code for the time slice containing the given moment.
func CodeAt(secret string, digits, period int, at time.Time) string {
	if digits <= 0 {
		digits = DefaultDigits
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	key := hotp.DecodeBase32(secret)
	return hotp.Code(key, uint64(at.Unix()/int64(period)), digits)
}

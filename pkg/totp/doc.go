// Package totp implements Time-based One-Time Passwords per RFC 6238: secret
// key generation, otpauth URI construction for authenticator onboarding, and
// time-windowed code verification.
//
// The HOTP derivation itself (base32 decoding, HMAC-SHA1 counter digest,
// dynamic truncation) lives in pkg/hotp; this package adds time-slice
// arithmetic, clock-drift tolerance and constant-time comparison on top.
//
// # Usage
//
//	secret, _ := totp.GenerateSecret()
//
//	uri, _ := totp.OtpAuthURI(totp.URIParams{
//	    Secret: secret,
//	    Label:  "alice@example.com",
//	    Issuer: "Acme",
//	})
//	// render uri as a QR code, then later:
//
//	ok := totp.VerifyCode(secret, submitted, totp.DefaultDigits, totp.DefaultPeriod, totp.DefaultWindow)
//
// # Error Handling
//
// Verification returns a plain bool: a wrong code, an expired code and an
// undecodable secret are all indistinguishable failures. Only
// GenerateSecret and OtpAuthURI return errors, all of which wrap package
// sentinels such as ErrMissingSecret and can be matched with errors.Is.
package totp

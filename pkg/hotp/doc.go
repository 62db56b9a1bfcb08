// Package hotp implements the low-level primitives behind HMAC-based one-time
// passwords: lenient base32 decoding of shared secrets, the RFC 4226 HMAC-SHA1
// counter digest, and dynamic truncation to a fixed-length decimal code.
//
// The package contains pure functions only. Time-window handling, secret
// generation and URI construction live one level up in pkg/totp.
//
// # Usage
//
//	key := hotp.DecodeBase32("GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ")
//	code := hotp.Code(key, 1, 6) // "287082"
//
// # Error Handling
//
// None of the functions return errors. DecodeBase32 skips characters it does
// not understand and treats padding as end-of-input, so callers must not rely
// on it for strict validation.
package hotp

// Package secrets protects MFA secret material (primarily TOTP shared
// secrets) at rest. It derives a realm-scoped 32-byte data key from a single
// application key using HKDF-SHA-256, then encrypts with AES-256-GCM. The
// nonce is prepended to the ciphertext so the stored value is self-contained.
//
// Scoping the derivation by owner realm means records of different owner
// types (e.g. users vs. admins in a multi-tenant host) never share key
// material, without requiring per-realm key management.
//
// # Usage
//
//	key, _ := secrets.DecodeKey(os.Getenv("MFA_ENCRYPTION_KEY"))
//	cipher, err := secrets.NewCipher(key)
//	if err != nil {
//	    // handle error
//	}
//
//	ct, _ := cipher.Encrypt("users", totpSecret)
//	plain, _ := cipher.Decrypt("users", ct)
//
// The *Cipher type satisfies the root package's SecretCipher interface and is
// wired into the facade with mfa.WithSecretCipher.
//
// # Error Handling
//
// All failures wrap package sentinels (ErrInvalidKey, ErrEncryptionFailed,
// ErrDecryptionFailed, ErrInvalidCiphertext); match with errors.Is.
package secrets

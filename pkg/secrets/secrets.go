package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Cipher encrypts TOTP secrets (and any other sensitive MFA material) for
// storage at rest using AES-256-GCM. A fresh data key is derived per owner
// realm via HKDF so that records of different owner types never share key
// material.
type Cipher struct {
	appKey []byte
}

// NewCipher creates a Cipher from a 32-byte application key.
func NewCipher(appKey []byte) (*Cipher, error) {
	if len(appKey) != KeySize {
		return nil, ErrInvalidKey
	}
	key := make([]byte, KeySize)
	copy(key, appKey)
	return &Cipher{appKey: key}, nil
}

// Encrypt encrypts the plaintext under the realm-derived key and returns a
// base64-encoded ciphertext with the nonce prepended.
func (c *Cipher) Encrypt(realm, plaintext string) (string, error) {
	aesGCM, err := c.aead(realm)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	cipherText := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

// Decrypt reverses Encrypt. The realm must match the one used at encryption
// time or authentication fails.
func (c *Cipher) Decrypt(realm, encoded string) (string, error) {
	cipherText, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	aesGCM, err := c.aead(realm)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	nonceSize := aesGCM.NonceSize()
	if len(cipherText) < nonceSize {
		return "", ErrInvalidCiphertext
	}
	nonce, cipherText := cipherText[:nonceSize], cipherText[nonceSize:]

	plainText, err := aesGCM.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plainText), nil
}

func (c *Cipher) aead(realm string) (cipher.AEAD, error) {
	key, err := deriveKey(c.appKey, realm)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

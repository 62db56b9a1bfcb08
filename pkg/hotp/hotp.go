package hotp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"strconv"
	"strings"
)

// base32Alphabet is the RFC 4648 base32 alphabet.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// DecodeBase32 decodes a base32 string into raw bytes. The decoder is
// deliberately lenient: input is uppercased first, characters outside the
// RFC 4648 alphabet are skipped, a padding character ('=') terminates the
// input, and unpadded strings are accepted. It never fails; malformed input
// yields a best-effort partial result.
func DecodeBase32(secret string) []byte {
	secret = strings.ToUpper(secret)

	var (
		buffer   uint64
		bitsLeft uint
		result   []byte
	)
	for i := 0; i < len(secret); i++ {
		c := secret[i]
		if c == '=' {
			break
		}
		val := strings.IndexByte(base32Alphabet, c)
		if val < 0 {
			continue
		}
		buffer = buffer<<5 | uint64(val)
		bitsLeft += 5
		if bitsLeft >= 8 {
			bitsLeft -= 8
			result = append(result, byte(buffer>>bitsLeft))
		}
	}
	return result
}

// Digest computes the RFC 4226 HMAC-SHA1 digest of the counter. The counter
// is encoded as an 8-byte big-endian integer before hashing. The returned
// digest is always 20 bytes.
func Digest(key []byte, counter uint64) []byte {
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes[:])
	return mac.Sum(nil)
}

// Truncate applies RFC 4226 dynamic truncation to an HMAC digest and returns
// a left-zero-padded decimal code of the requested number of digits. The
// offset is the low nibble of the last digest byte; a 31-bit big-endian value
// is read from that offset and reduced modulo 10^digits.
func Truncate(digest []byte, digits int) string {
	offset := digest[len(digest)-1] & 0x0f
	value := (uint32(digest[offset]&0x7f) << 24) |
		(uint32(digest[offset+1]) << 16) |
		(uint32(digest[offset+2]) << 8) |
		uint32(digest[offset+3])

	// The modulus is computed in uint64: 10^10 overflows uint32, and a
	// float64 Pow10 conversion is implementation-defined out of range.
	code := uint64(value) % pow10(digits)

	s := strconv.FormatUint(code, 10)
	if len(s) < digits {
		s = strings.Repeat("0", digits-len(s)) + s
	}
	return s
}

// pow10 returns 10^n as an integer. For n up to 10 the result fits uint64
// with room to spare.
func pow10(n int) uint64 {
	result := uint64(1)
	for range n {
		result *= 10
	}
	return result
}

// Code derives a one-time password for the given key and counter in a single
// step, combining Digest and Truncate.
func Code(key []byte, counter uint64, digits int) string {
	return Truncate(Digest(key, counter), digits)
}

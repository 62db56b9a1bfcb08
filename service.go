package mfa

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"
)

// SecretCipher protects TOTP secrets at rest. The realm argument is the
// owner's realm, letting implementations scope key material per owner type.
// pkg/secrets provides an AES-256-GCM implementation.
type SecretCipher interface {
	Encrypt(realm, plaintext string) (string, error)
	Decrypt(realm, ciphertext string) (string, error)
}

// noopCipher stores secrets verbatim. It is the default so the facade works
// out of the box, but production hosts are expected to wire a real cipher
// via WithSecretCipher.
type noopCipher struct{}

func (noopCipher) Encrypt(_, plaintext string) (string, error) { return plaintext, nil }

func (noopCipher) Decrypt(_, ciphertext string) (string, error) { return ciphertext, nil }

// Service is the facade a host holds for the lifetime of the process. It
// wraps the TOTP, challenge, remembered-device and recovery-code engines
// plus the method-enablement ledger, all reading and writing through one
// Store keyed by owner identity.
type Service struct {
	cfg      Config
	store    Store
	registry *ChannelRegistry
	cipher   SecretCipher
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSecretCipher sets the cipher used for TOTP secrets at rest.
func WithSecretCipher(cipher SecretCipher) Option {
	return func(s *Service) {
		if cipher != nil {
			s.cipher = cipher
		}
	}
}

// WithChannels registers delivery channels during construction.
func WithChannels(channels ...Channel) Option {
	return func(s *Service) {
		for _, ch := range channels {
			s.registry.Register(ch)
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service. The configuration is validated up front so channel
// and cookie misconfiguration surfaces here rather than mid-request.
func New(cfg Config, store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrMissingStore
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		store:    store,
		registry: NewChannelRegistry(),
		cipher:   noopCipher{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// RegisterChannel adds a delivery channel to the service's registry.
func (s *Service) RegisterChannel(channel Channel) {
	s.registry.Register(channel)
}

// Channels exposes the service's channel registry.
func (s *Service) Channels() *ChannelRegistry {
	return s.registry
}

// randomNumericCode draws a uniformly random integer in [0, 10^length) from
// the secure source and formats it left-zero-padded.
func randomNumericCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", errors.Join(ErrFailedToGenerate, err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// randomToken returns length cryptographically random bytes hex-encoded.
func randomToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrFailedToGenerate, err)
	}
	return hex.EncodeToString(buf), nil
}

// hashToken one-way hashes a bearer token for storage and lookup. Plaintext
// tokens never touch the store.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// recoveryHash returns the hash function for the configured algorithm.
func recoveryHash(algo string) (func(string) string, error) {
	switch algo {
	case "sha256", "":
		return func(code string) string {
			sum := sha256.Sum256([]byte(code))
			return hex.EncodeToString(sum[:])
		}, nil
	case "sha512":
		return func(code string) string {
			sum := sha512.Sum512([]byte(code))
			return hex.EncodeToString(sum[:])
		}, nil
	default:
		return nil, fmt.Errorf("%w: recovery hash algorithm %q is not one of sha256|sha512", ErrInvalidConfig, algo)
	}
}

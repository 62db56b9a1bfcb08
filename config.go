package mfa

import (
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

// Secure-flag resolution modes for the remember-me cookie.
const (
	SecureAuto   = "auto"   // follow the ambient request's transport security
	SecureAlways = "always" // always set the Secure flag
	SecureNever  = "never"  // never set the Secure flag
)

// Config controls every engine behind the facade. All values can be loaded
// from environment variables via LoadConfig or constructed in code; zero
// values fall back to the same defaults as DefaultConfig.
type Config struct {
	// CodeLength is the number of digits in out-of-band challenge codes.
	CodeLength int `env:"MFA_CODE_LENGTH" envDefault:"6"`
	// CodeTTL is how long an issued challenge stays verifiable.
	CodeTTL time.Duration `env:"MFA_CODE_TTL" envDefault:"5m"`

	TOTP     TOTPConfig     `envPrefix:"MFA_TOTP_"`
	Remember RememberConfig `envPrefix:"MFA_REMEMBER_"`
	Recovery RecoveryConfig `envPrefix:"MFA_RECOVERY_"`
}

// TOTPConfig holds the RFC 6238 parameters used for setup and verification.
type TOTPConfig struct {
	Issuer string `env:"ISSUER" envDefault:"MFA"`
	Digits int    `env:"DIGITS" envDefault:"6"`
	Period int    `env:"PERIOD" envDefault:"30"` // seconds
	Window int    `env:"WINDOW" envDefault:"1"`  // accepted clock-drift periods per direction
}

// RememberConfig controls the remembered-device trust mechanism and the
// cookie specification handed back to the host.
type RememberConfig struct {
	Enabled    bool          `env:"ENABLED" envDefault:"true"`
	CookieName string        `env:"COOKIE" envDefault:"mfa_rd"`
	Lifetime   time.Duration `env:"LIFETIME" envDefault:"720h"` // 30 days
	Path       string        `env:"PATH" envDefault:"/"`
	Domain     string        `env:"DOMAIN"`
	Secure     string        `env:"SECURE" envDefault:"auto"`   // auto|always|never
	HTTPOnly   bool          `env:"HTTP_ONLY" envDefault:"true"`
	SameSite   string        `env:"SAME_SITE" envDefault:"lax"` // lax|strict|none
}

// RecoveryConfig controls single-use backup codes.
type RecoveryConfig struct {
	Count           int    `env:"CODES_COUNT" envDefault:"10"`
	Length          int    `env:"CODE_LENGTH" envDefault:"10"`
	RegenerateOnUse bool   `env:"REGENERATE_ON_USE" envDefault:"false"`
	HashAlgo        string `env:"HASH_ALGO" envDefault:"sha256"` // sha256|sha512
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		CodeLength: 6,
		CodeTTL:    5 * time.Minute,
		TOTP: TOTPConfig{
			Issuer: "MFA",
			Digits: 6,
			Period: 30,
			Window: 1,
		},
		Remember: RememberConfig{
			Enabled:    true,
			CookieName: "mfa_rd",
			Lifetime:   30 * 24 * time.Hour,
			Path:       "/",
			Secure:     SecureAuto,
			HTTPOnly:   true,
			SameSite:   "lax",
		},
		Recovery: RecoveryConfig{
			Count:    10,
			Length:   10,
			HashAlgo: "sha256",
		},
	}
}

// LoadConfig populates Config from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be repaired by defaulting. It is
// called by New, so a misconfigured facade fails at construction rather than
// on first use.
func (c Config) Validate() error {
	if c.CodeLength < 4 || c.CodeLength > 10 {
		return fmt.Errorf("%w: code length must be between 4 and 10", ErrInvalidConfig)
	}
	if c.CodeTTL <= 0 {
		return fmt.Errorf("%w: code TTL must be positive", ErrInvalidConfig)
	}
	if c.TOTP.Digits < 4 || c.TOTP.Digits > 10 {
		return fmt.Errorf("%w: TOTP digits must be between 4 and 10", ErrInvalidConfig)
	}
	if c.TOTP.Period <= 0 {
		return fmt.Errorf("%w: TOTP period must be positive", ErrInvalidConfig)
	}
	if c.TOTP.Window < 0 {
		return fmt.Errorf("%w: TOTP window must not be negative", ErrInvalidConfig)
	}
	switch c.Remember.Secure {
	case SecureAuto, SecureAlways, SecureNever:
	default:
		return fmt.Errorf("%w: remember secure mode %q is not one of auto|always|never", ErrInvalidConfig, c.Remember.Secure)
	}
	if _, err := parseSameSite(c.Remember.SameSite); err != nil {
		return err
	}
	if c.Remember.Lifetime <= 0 {
		return fmt.Errorf("%w: remember lifetime must be positive", ErrInvalidConfig)
	}
	if c.Recovery.Count < 1 {
		return fmt.Errorf("%w: recovery code count must be at least 1", ErrInvalidConfig)
	}
	if c.Recovery.Length < 6 {
		return fmt.Errorf("%w: recovery code length must be at least 6", ErrInvalidConfig)
	}
	if _, err := recoveryHash(c.Recovery.HashAlgo); err != nil {
		return err
	}
	return nil
}

func parseSameSite(v string) (http.SameSite, error) {
	switch v {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("%w: same-site %q is not one of lax|strict|none", ErrInvalidConfig, v)
	}
}

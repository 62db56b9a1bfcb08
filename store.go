package mfa

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Method is one factor enabled (or previously enabled) for an owner. At most
// one record exists per (owner, name).
type Method struct {
	ID     uuid.UUID
	Owner  OwnerRef
	Name   string // lowercase: "totp", "email", "sms", or a custom channel name
	Secret string // encrypted TOTP secret; empty for out-of-band methods

	// EnabledAt nil means the method is disabled; the record is kept so a
	// re-enable does not lose the secret.
	EnabledAt  *time.Time
	LastUsedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Enabled reports whether the method is currently active.
func (m *Method) Enabled() bool {
	return m != nil && m.EnabledAt != nil
}

// Challenge is a single issued one-time code for an (owner, method) pair.
// Multiple challenges may coexist; verification targets the most recently
// created active one.
type Challenge struct {
	ID         uuid.UUID
	Owner      OwnerRef
	Method     string
	Code       string // fixed-length numeric, left-zero-padded
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Active reports whether the challenge can still be consumed at the given
// moment: never consumed and expiry strictly in the future.
func (c *Challenge) Active(now time.Time) bool {
	return c != nil && c.ConsumedAt == nil && c.ExpiresAt.After(now)
}

// RememberedDevice is a long-lived trust grant for a browser or device. Only
// the token hash is persisted; the plaintext bearer token is returned to the
// caller exactly once.
type RememberedDevice struct {
	ID         uuid.UUID
	Owner      OwnerRef
	TokenHash  string
	DeviceName string
	UserAgent  string
	IPAddress  string
	ExpiresAt  time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// RecoveryCode is a single-use backup code, stored as a hash.
type RecoveryCode struct {
	ID        uuid.UUID
	Owner     OwnerRef
	CodeHash  string
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Store is the persistence collaborator behind all engines. Implementations
// must provide atomic conditional semantics for ConsumeChallenge and
// ConsumeRecoveryCode: of two concurrent consumers, exactly one wins.
//
// Lookups that find nothing return ErrNotFound (or an error wrapping it);
// deletes are idempotent and report the number of rows removed.
type Store interface {
	// GetMethod returns the record for (owner, name), enabled or not.
	GetMethod(ctx context.Context, owner OwnerRef, name string) (*Method, error)
	// UpsertMethod inserts or replaces the record keyed by (owner, name).
	UpsertMethod(ctx context.Context, method *Method) error
	// ListMethods returns all method records for the owner.
	ListMethods(ctx context.Context, owner OwnerRef) ([]Method, error)

	// CreateChallenge persists a freshly issued challenge.
	CreateChallenge(ctx context.Context, challenge *Challenge) error
	// LatestActiveChallenge returns the most recently created challenge for
	// (owner, method) that is unconsumed and unexpired at now.
	LatestActiveChallenge(ctx context.Context, owner OwnerRef, method string, now time.Time) (*Challenge, error)
	// ConsumeChallenge marks the challenge consumed iff it is still
	// unconsumed, reporting whether this caller won.
	ConsumeChallenge(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// CreateRememberedDevice persists a new trust grant.
	CreateRememberedDevice(ctx context.Context, device *RememberedDevice) error
	// FindRememberedDevice returns the unexpired grant for (owner, tokenHash).
	FindRememberedDevice(ctx context.Context, owner OwnerRef, tokenHash string, now time.Time) (*RememberedDevice, error)
	// TouchRememberedDevice refreshes last-used time and, when non-empty,
	// the stored user agent and IP address.
	TouchRememberedDevice(ctx context.Context, id uuid.UUID, at time.Time, userAgent, ipAddress string) error
	// DeleteRememberedDevice removes grants matching (owner, tokenHash).
	DeleteRememberedDevice(ctx context.Context, owner OwnerRef, tokenHash string) (int64, error)
	// ListRememberedDevices returns the owner's unexpired grants.
	ListRememberedDevices(ctx context.Context, owner OwnerRef, now time.Time) ([]RememberedDevice, error)

	// CreateRecoveryCodes persists a batch of hashed recovery codes.
	CreateRecoveryCodes(ctx context.Context, codes []RecoveryCode) error
	// ConsumeRecoveryCode marks the unused code matching (owner, codeHash)
	// used iff one exists, reporting whether this caller won.
	ConsumeRecoveryCode(ctx context.Context, owner OwnerRef, codeHash string, at time.Time) (bool, error)
	// CountUnusedRecoveryCodes returns how many codes remain redeemable.
	CountUnusedRecoveryCodes(ctx context.Context, owner OwnerRef) (int, error)
	// DeleteRecoveryCodes removes all of the owner's codes, used or not.
	DeleteRecoveryCodes(ctx context.Context, owner OwnerRef) (int64, error)
}

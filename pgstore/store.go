package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codinglibs/mfa"
)

// Store implements mfa.Store on PostgreSQL via pgx. Conditional UPDATE
// statements give ConsumeChallenge and ConsumeRecoveryCode their exactly-once
// semantics; no advisory locks or transactions are needed.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetMethod returns the record for (owner, name), enabled or not.
func (s *Store) GetMethod(ctx context.Context, owner mfa.OwnerRef, name string) (*mfa.Method, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_realm, owner_id, name, secret, enabled_at, last_used_at, created_at, updated_at
		FROM mfa_methods
		WHERE owner_realm = $1 AND owner_id = $2 AND name = $3`,
		owner.Realm, owner.ID, name,
	)

	method, err := scanMethod(row)
	if IsNotFoundError(err) {
		return nil, mfa.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return method, nil
}

// UpsertMethod inserts or replaces the record keyed by (owner, name).
func (s *Store) UpsertMethod(ctx context.Context, method *mfa.Method) error {
	if method == nil || method.Owner.IsZero() || method.Name == "" {
		return mfa.ErrInvalidRecord
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO mfa_methods (id, owner_realm, owner_id, name, secret, enabled_at, last_used_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_realm, owner_id, name) DO UPDATE SET
			secret       = EXCLUDED.secret,
			enabled_at   = EXCLUDED.enabled_at,
			last_used_at = EXCLUDED.last_used_at,
			updated_at   = EXCLUDED.updated_at`,
		method.ID, method.Owner.Realm, method.Owner.ID, method.Name, method.Secret,
		method.EnabledAt, method.LastUsedAt, method.CreatedAt, method.UpdatedAt,
	)
	return err
}

// ListMethods returns all method records for the owner.
func (s *Store) ListMethods(ctx context.Context, owner mfa.OwnerRef) ([]mfa.Method, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_realm, owner_id, name, secret, enabled_at, last_used_at, created_at, updated_at
		FROM mfa_methods
		WHERE owner_realm = $1 AND owner_id = $2
		ORDER BY name`,
		owner.Realm, owner.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []mfa.Method
	for rows.Next() {
		method, err := scanMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, *method)
	}
	return methods, rows.Err()
}

// CreateChallenge persists a freshly issued challenge.
func (s *Store) CreateChallenge(ctx context.Context, challenge *mfa.Challenge) error {
	if challenge == nil || challenge.ID == uuid.Nil || challenge.Owner.IsZero() {
		return mfa.ErrInvalidRecord
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO mfa_challenges (id, owner_realm, owner_id, method, code, expires_at, consumed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		challenge.ID, challenge.Owner.Realm, challenge.Owner.ID, challenge.Method,
		challenge.Code, challenge.ExpiresAt, challenge.ConsumedAt, challenge.CreatedAt,
	)
	return err
}

// LatestActiveChallenge returns the most recently created unconsumed and
// unexpired challenge for (owner, method). The id tiebreak keeps the result
// deterministic when two challenges share a creation timestamp.
func (s *Store) LatestActiveChallenge(ctx context.Context, owner mfa.OwnerRef, method string, now time.Time) (*mfa.Challenge, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_realm, owner_id, method, code, expires_at, consumed_at, created_at
		FROM mfa_challenges
		WHERE owner_realm = $1 AND owner_id = $2 AND method = $3
		  AND consumed_at IS NULL AND expires_at > $4
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		owner.Realm, owner.ID, method, now,
	)

	challenge := &mfa.Challenge{}
	var realm, id string
	err := row.Scan(&challenge.ID, &realm, &id, &challenge.Method, &challenge.Code,
		&challenge.ExpiresAt, &challenge.ConsumedAt, &challenge.CreatedAt)
	if IsNotFoundError(err) {
		return nil, mfa.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	challenge.Owner = mfa.OwnerRef{Realm: realm, ID: id}
	return challenge, nil
}

// ConsumeChallenge marks the challenge consumed iff it is still unconsumed.
func (s *Store) ConsumeChallenge(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE mfa_challenges SET consumed_at = $2
		WHERE id = $1 AND consumed_at IS NULL`,
		id, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CreateRememberedDevice persists a new trust grant.
func (s *Store) CreateRememberedDevice(ctx context.Context, device *mfa.RememberedDevice) error {
	if device == nil || device.ID == uuid.Nil || device.Owner.IsZero() || device.TokenHash == "" {
		return mfa.ErrInvalidRecord
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO mfa_remembered_devices (id, owner_realm, owner_id, token_hash, device_name, user_agent, ip_address, expires_at, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		device.ID, device.Owner.Realm, device.Owner.ID, device.TokenHash, device.DeviceName,
		device.UserAgent, device.IPAddress, device.ExpiresAt, device.LastUsedAt, device.CreatedAt,
	)
	if IsDuplicateKeyError(err) {
		return mfa.ErrDuplicateToken
	}
	return err
}

// FindRememberedDevice returns the unexpired grant for (owner, tokenHash).
func (s *Store) FindRememberedDevice(ctx context.Context, owner mfa.OwnerRef, tokenHash string, now time.Time) (*mfa.RememberedDevice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_realm, owner_id, token_hash, device_name, user_agent, ip_address, expires_at, last_used_at, created_at
		FROM mfa_remembered_devices
		WHERE owner_realm = $1 AND owner_id = $2 AND token_hash = $3 AND expires_at > $4`,
		owner.Realm, owner.ID, tokenHash, now,
	)

	device, err := scanDevice(row)
	if IsNotFoundError(err) {
		return nil, mfa.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return device, nil
}

// TouchRememberedDevice refreshes last-used time and, when non-empty, the
// stored user agent and IP address.
func (s *Store) TouchRememberedDevice(ctx context.Context, id uuid.UUID, at time.Time, userAgent, ipAddress string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE mfa_remembered_devices SET
			last_used_at = $2,
			user_agent   = CASE WHEN $3 <> '' THEN $3 ELSE user_agent END,
			ip_address   = CASE WHEN $4 <> '' THEN $4 ELSE ip_address END
		WHERE id = $1`,
		id, at, userAgent, ipAddress,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mfa.ErrNotFound
	}
	return nil
}

// DeleteRememberedDevice removes grants matching (owner, tokenHash).
func (s *Store) DeleteRememberedDevice(ctx context.Context, owner mfa.OwnerRef, tokenHash string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM mfa_remembered_devices
		WHERE owner_realm = $1 AND owner_id = $2 AND token_hash = $3`,
		owner.Realm, owner.ID, tokenHash,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListRememberedDevices returns the owner's unexpired grants.
func (s *Store) ListRememberedDevices(ctx context.Context, owner mfa.OwnerRef, now time.Time) ([]mfa.RememberedDevice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_realm, owner_id, token_hash, device_name, user_agent, ip_address, expires_at, last_used_at, created_at
		FROM mfa_remembered_devices
		WHERE owner_realm = $1 AND owner_id = $2 AND expires_at > $3
		ORDER BY created_at`,
		owner.Realm, owner.ID, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []mfa.RememberedDevice
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}
	return devices, rows.Err()
}

// CreateRecoveryCodes persists a batch of hashed recovery codes.
func (s *Store) CreateRecoveryCodes(ctx context.Context, codes []mfa.RecoveryCode) error {
	batch := &pgx.Batch{}
	for _, code := range codes {
		if code.ID == uuid.Nil || code.Owner.IsZero() || code.CodeHash == "" {
			return mfa.ErrInvalidRecord
		}
		batch.Queue(`
			INSERT INTO mfa_recovery_codes (id, owner_realm, owner_id, code_hash, used_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			code.ID, code.Owner.Realm, code.Owner.ID, code.CodeHash, code.UsedAt, code.CreatedAt,
		)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// ConsumeRecoveryCode marks one unused code matching (owner, codeHash) used.
// The subquery picks a single row so a duplicate hash cannot burn the whole
// set, and the conditional UPDATE makes concurrent redemptions race safely.
func (s *Store) ConsumeRecoveryCode(ctx context.Context, owner mfa.OwnerRef, codeHash string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE mfa_recovery_codes SET used_at = $4
		WHERE id = (
			SELECT id FROM mfa_recovery_codes
			WHERE owner_realm = $1 AND owner_id = $2 AND code_hash = $3 AND used_at IS NULL
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND used_at IS NULL`,
		owner.Realm, owner.ID, codeHash, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CountUnusedRecoveryCodes returns how many codes remain redeemable.
func (s *Store) CountUnusedRecoveryCodes(ctx context.Context, owner mfa.OwnerRef) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM mfa_recovery_codes
		WHERE owner_realm = $1 AND owner_id = $2 AND used_at IS NULL`,
		owner.Realm, owner.ID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteRecoveryCodes removes all of the owner's codes, used or not.
func (s *Store) DeleteRecoveryCodes(ctx context.Context, owner mfa.OwnerRef) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM mfa_recovery_codes
		WHERE owner_realm = $1 AND owner_id = $2`,
		owner.Realm, owner.ID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanMethod(row pgx.Row) (*mfa.Method, error) {
	method := &mfa.Method{}
	var realm, id string
	err := row.Scan(&method.ID, &realm, &id, &method.Name, &method.Secret,
		&method.EnabledAt, &method.LastUsedAt, &method.CreatedAt, &method.UpdatedAt)
	if err != nil {
		return nil, err
	}
	method.Owner = mfa.OwnerRef{Realm: realm, ID: id}
	return method, nil
}

func scanDevice(row pgx.Row) (*mfa.RememberedDevice, error) {
	device := &mfa.RememberedDevice{}
	var realm, id string
	err := row.Scan(&device.ID, &realm, &id, &device.TokenHash, &device.DeviceName,
		&device.UserAgent, &device.IPAddress, &device.ExpiresAt, &device.LastUsedAt, &device.CreatedAt)
	if err != nil {
		return nil, err
	}
	device.Owner = mfa.OwnerRef{Realm: realm, ID: id}
	return device, nil
}

package mfa

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process maps guarded by a mutex. It
// backs tests and single-process hosts; production deployments should use a
// durable implementation such as pgstore.
type MemoryStore struct {
	mu       sync.RWMutex
	methods  map[string]*Method // keyed by owner+"\x00"+name
	byID     map[uuid.UUID]*Challenge
	byOwner  map[OwnerRef][]*Challenge
	devices  map[OwnerRef][]*RememberedDevice
	recovery map[OwnerRef][]*RecoveryCode
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		methods:  make(map[string]*Method),
		byID:     make(map[uuid.UUID]*Challenge),
		byOwner:  make(map[OwnerRef][]*Challenge),
		devices:  make(map[OwnerRef][]*RememberedDevice),
		recovery: make(map[OwnerRef][]*RecoveryCode),
	}
}

func methodKey(owner OwnerRef, name string) string {
	return owner.String() + "\x00" + name
}

// GetMethod returns a copy of the record for (owner, name).
func (m *MemoryStore) GetMethod(ctx context.Context, owner OwnerRef, name string) (*Method, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	method, ok := m.methods[methodKey(owner, name)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *method
	return &cp, nil
}

// UpsertMethod inserts or replaces the record keyed by (owner, name).
func (m *MemoryStore) UpsertMethod(ctx context.Context, method *Method) error {
	if method == nil || method.Owner.IsZero() || method.Name == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *method
	m.methods[methodKey(method.Owner, method.Name)] = &cp
	return nil
}

// ListMethods returns all method records for the owner.
func (m *MemoryStore) ListMethods(ctx context.Context, owner OwnerRef) ([]Method, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Method
	for _, method := range m.methods {
		if method.Owner == owner {
			out = append(out, *method)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateChallenge persists a new challenge.
func (m *MemoryStore) CreateChallenge(ctx context.Context, challenge *Challenge) error {
	if challenge == nil || challenge.ID == uuid.Nil || challenge.Owner.IsZero() {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *challenge
	m.byID[challenge.ID] = &cp
	m.byOwner[challenge.Owner] = append(m.byOwner[challenge.Owner], &cp)
	return nil
}

// LatestActiveChallenge returns the most recently created active challenge
// for (owner, method).
func (m *MemoryStore) LatestActiveChallenge(ctx context.Context, owner OwnerRef, method string, now time.Time) (*Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Challenge
	for _, ch := range m.byOwner[owner] {
		if ch.Method != method || !ch.Active(now) {
			continue
		}
		if latest == nil || ch.CreatedAt.After(latest.CreatedAt) {
			latest = ch
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

// ConsumeChallenge marks the challenge consumed iff it is still unconsumed.
func (m *MemoryStore) ConsumeChallenge(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.byID[id]
	if !ok || ch.ConsumedAt != nil {
		return false, nil
	}
	consumedAt := at
	ch.ConsumedAt = &consumedAt
	return true, nil
}

// CreateRememberedDevice persists a new trust grant.
func (m *MemoryStore) CreateRememberedDevice(ctx context.Context, device *RememberedDevice) error {
	if device == nil || device.ID == uuid.Nil || device.Owner.IsZero() || device.TokenHash == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// token_hash is unique per owner.
	for _, d := range m.devices[device.Owner] {
		if d.TokenHash == device.TokenHash {
			return ErrDuplicateToken
		}
	}

	cp := *device
	m.devices[device.Owner] = append(m.devices[device.Owner], &cp)
	return nil
}

// FindRememberedDevice returns the unexpired grant for (owner, tokenHash).
func (m *MemoryStore) FindRememberedDevice(ctx context.Context, owner OwnerRef, tokenHash string, now time.Time) (*RememberedDevice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.devices[owner] {
		if d.TokenHash == tokenHash && d.ExpiresAt.After(now) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// TouchRememberedDevice refreshes last-used time and non-empty metadata.
func (m *MemoryStore) TouchRememberedDevice(ctx context.Context, id uuid.UUID, at time.Time, userAgent, ipAddress string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, devices := range m.devices {
		for _, d := range devices {
			if d.ID != id {
				continue
			}
			lastUsed := at
			d.LastUsedAt = &lastUsed
			if userAgent != "" {
				d.UserAgent = userAgent
			}
			if ipAddress != "" {
				d.IPAddress = ipAddress
			}
			return nil
		}
	}
	return ErrNotFound
}

// DeleteRememberedDevice removes grants matching (owner, tokenHash).
func (m *MemoryStore) DeleteRememberedDevice(ctx context.Context, owner OwnerRef, tokenHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		kept    []*RememberedDevice
		deleted int64
	)
	for _, d := range m.devices[owner] {
		if d.TokenHash == tokenHash {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	m.devices[owner] = kept
	return deleted, nil
}

// ListRememberedDevices returns the owner's unexpired grants.
func (m *MemoryStore) ListRememberedDevices(ctx context.Context, owner OwnerRef, now time.Time) ([]RememberedDevice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []RememberedDevice
	for _, d := range m.devices[owner] {
		if d.ExpiresAt.After(now) {
			out = append(out, *d)
		}
	}
	return out, nil
}

// CreateRecoveryCodes persists a batch of hashed recovery codes.
func (m *MemoryStore) CreateRecoveryCodes(ctx context.Context, codes []RecoveryCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, code := range codes {
		if code.ID == uuid.Nil || code.Owner.IsZero() || code.CodeHash == "" {
			return ErrInvalidRecord
		}
		cp := code
		m.recovery[code.Owner] = append(m.recovery[code.Owner], &cp)
	}
	return nil
}

// ConsumeRecoveryCode marks the unused matching code used iff one exists.
func (m *MemoryStore) ConsumeRecoveryCode(ctx context.Context, owner OwnerRef, codeHash string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.recovery[owner] {
		if c.CodeHash == codeHash && c.UsedAt == nil {
			usedAt := at
			c.UsedAt = &usedAt
			return true, nil
		}
	}
	return false, nil
}

// CountUnusedRecoveryCodes returns how many codes remain redeemable.
func (m *MemoryStore) CountUnusedRecoveryCodes(ctx context.Context, owner OwnerRef) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, c := range m.recovery[owner] {
		if c.UsedAt == nil {
			count++
		}
	}
	return count, nil
}

// DeleteRecoveryCodes removes all of the owner's codes.
func (m *MemoryStore) DeleteRecoveryCodes(ctx context.Context, owner OwnerRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := int64(len(m.recovery[owner]))
	delete(m.recovery, owner)
	return deleted, nil
}

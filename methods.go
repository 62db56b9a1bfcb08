package mfa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EnableMethod marks the method enabled for the account, creating the ledger
// record on first enable. Re-enabling a disabled method keeps its stored
// secret.
func (s *Service) EnableMethod(ctx context.Context, account Account, name string) (*Method, error) {
	return s.enableMethod(ctx, account.MFAOwner(), strings.ToLower(name), "")
}

// enableMethod upserts the (owner, name) record with enabled_at set to now.
// A non-empty secret replaces the stored one; an empty secret leaves it
// untouched.
func (s *Service) enableMethod(ctx context.Context, owner OwnerRef, name, secret string) (*Method, error) {
	now := s.now()

	method, err := s.store.GetMethod(ctx, owner, name)
	switch {
	case errors.Is(err, ErrNotFound):
		method = &Method{
			ID:        uuid.New(),
			Owner:     owner,
			Name:      name,
			CreatedAt: now,
		}
	case err != nil:
		return nil, fmt.Errorf("loading method record: %w", err)
	}

	if secret != "" {
		method.Secret = secret
	}
	enabledAt := now
	method.EnabledAt = &enabledAt
	method.UpdatedAt = now

	if err := s.store.UpsertMethod(ctx, method); err != nil {
		return nil, fmt.Errorf("saving method record: %w", err)
	}
	return method, nil
}

// DisableMethod clears enabled_at for the method but keeps the record, so a
// later re-enable does not need a fresh TOTP enrollment. It reports whether
// a record existed.
func (s *Service) DisableMethod(ctx context.Context, account Account, name string) (bool, error) {
	owner := account.MFAOwner()
	name = strings.ToLower(name)

	method, err := s.store.GetMethod(ctx, owner, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading method record: %w", err)
	}

	method.EnabledAt = nil
	method.UpdatedAt = s.now()
	if err := s.store.UpsertMethod(ctx, method); err != nil {
		return false, fmt.Errorf("saving method record: %w", err)
	}
	return true, nil
}

// IsMethodEnabled reports whether the method is currently enabled for the
// account.
func (s *Service) IsMethodEnabled(ctx context.Context, account Account, name string) (bool, error) {
	method, err := s.GetMethod(ctx, account, name)
	if err != nil {
		return false, err
	}
	return method.Enabled(), nil
}

// GetMethod returns the ledger record for the method, enabled or not. A nil
// record with nil error means no record exists.
func (s *Service) GetMethod(ctx context.Context, account Account, name string) (*Method, error) {
	method, err := s.store.GetMethod(ctx, account.MFAOwner(), strings.ToLower(name))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading method record: %w", err)
	}
	return method, nil
}

// EnabledMethods returns the account's currently enabled methods, for host
// settings pages and factor pickers.
func (s *Service) EnabledMethods(ctx context.Context, account Account) ([]Method, error) {
	methods, err := s.store.ListMethods(ctx, account.MFAOwner())
	if err != nil {
		return nil, fmt.Errorf("listing method records: %w", err)
	}

	enabled := methods[:0]
	for _, m := range methods {
		if m.EnabledAt != nil {
			enabled = append(enabled, m)
		}
	}
	return enabled, nil
}

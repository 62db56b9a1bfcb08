package mfa

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/codinglibs/mfa/pkg/logger"
)

// recoveryAlphabet excludes visually confusable characters (0/O, 1/I/L).
// Its length is a power of two, so a random byte reduces to an index without
// modulo bias.
const recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RecoveryCodesOption adjusts a batch generation call.
type RecoveryCodesOption func(*recoveryParams)

type recoveryParams struct {
	count   int
	length  int
	replace bool
}

// WithCount overrides the configured number of codes in the batch.
func WithCount(count int) RecoveryCodesOption {
	return func(p *recoveryParams) {
		if count > 0 {
			p.count = count
		}
	}
}

// WithCodeLength overrides the configured code length.
func WithCodeLength(length int) RecoveryCodesOption {
	return func(p *recoveryParams) {
		if length > 0 {
			p.length = length
		}
	}
}

// WithoutReplacing keeps the account's existing codes instead of deleting
// them before the new batch is created.
func WithoutReplacing() RecoveryCodesOption {
	return func(p *recoveryParams) { p.replace = false }
}

// GenerateRecoveryCodes creates a batch of single-use backup codes for the
// account and returns the plaintext codes exactly once; only hashes are
// stored. By default all prior codes, used or not, are deleted first.
func (s *Service) GenerateRecoveryCodes(ctx context.Context, account Account, opts ...RecoveryCodesOption) ([]string, error) {
	params := recoveryParams{
		count:   s.cfg.Recovery.Count,
		length:  s.cfg.Recovery.Length,
		replace: true,
	}
	for _, opt := range opts {
		opt(&params)
	}

	hash, err := recoveryHash(s.cfg.Recovery.HashAlgo)
	if err != nil {
		return nil, err
	}

	owner := account.MFAOwner()

	if params.replace {
		if _, err := s.store.DeleteRecoveryCodes(ctx, owner); err != nil {
			return nil, fmt.Errorf("clearing previous recovery codes: %w", err)
		}
	}

	now := s.now()
	plaintext := make([]string, 0, params.count)
	records := make([]RecoveryCode, 0, params.count)
	for range params.count {
		code, err := readableCode(params.length)
		if err != nil {
			return nil, err
		}
		plaintext = append(plaintext, code)
		records = append(records, RecoveryCode{
			ID:        uuid.New(),
			Owner:     owner,
			CodeHash:  hash(code),
			CreatedAt: now,
		})
	}

	if err := s.store.CreateRecoveryCodes(ctx, records); err != nil {
		return nil, fmt.Errorf("persisting recovery codes: %w", err)
	}

	s.logger.InfoContext(ctx, "recovery codes generated",
		logger.Component("recovery"),
		logger.Owner(owner.String()),
	)

	return plaintext, nil
}

// VerifyRecoveryCode redeems a backup code. The submission is hashed and
// matched against the account's unused codes; a match is consumed atomically
// so two concurrent redemptions of one code cannot both succeed. When
// regenerate-on-use is configured, one fresh code is added to keep the pool
// size steady.
func (s *Service) VerifyRecoveryCode(ctx context.Context, account Account, code string) (bool, error) {
	hash, err := recoveryHash(s.cfg.Recovery.HashAlgo)
	if err != nil {
		return false, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, nil
	}

	owner := account.MFAOwner()

	consumed, err := s.store.ConsumeRecoveryCode(ctx, owner, hash(code), s.now())
	if err != nil {
		return false, fmt.Errorf("consuming recovery code: %w", err)
	}
	if !consumed {
		return false, nil
	}

	if s.cfg.Recovery.RegenerateOnUse {
		if _, err := s.GenerateRecoveryCodes(ctx, account, WithCount(1), WithoutReplacing()); err != nil {
			// The redemption stands; replenishment is best-effort.
			s.logger.ErrorContext(ctx, "failed to replenish recovery code",
				logger.Component("recovery"),
				logger.Owner(owner.String()),
				logger.Error(err),
			)
		}
	}

	s.logger.InfoContext(ctx, "recovery code redeemed",
		logger.Component("recovery"),
		logger.Owner(owner.String()),
	)

	return true, nil
}

// RemainingRecoveryCodes returns how many unused codes the account has left.
func (s *Service) RemainingRecoveryCodes(ctx context.Context, account Account) (int, error) {
	count, err := s.store.CountUnusedRecoveryCodes(ctx, account.MFAOwner())
	if err != nil {
		return 0, fmt.Errorf("counting recovery codes: %w", err)
	}
	return count, nil
}

// ClearRecoveryCodes deletes all of the account's codes and reports how many
// were removed.
func (s *Service) ClearRecoveryCodes(ctx context.Context, account Account) (int64, error) {
	deleted, err := s.store.DeleteRecoveryCodes(ctx, account.MFAOwner())
	if err != nil {
		return 0, fmt.Errorf("deleting recovery codes: %w", err)
	}
	return deleted, nil
}

// readableCode draws length characters uniformly from the unambiguous
// alphabet.
func readableCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrFailedToGenerate, err)
	}
	for i, b := range buf {
		buf[i] = recoveryAlphabet[int(b)%len(recoveryAlphabet)]
	}
	return string(buf), nil
}

package mfa

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/codinglibs/mfa/pkg/logger"
)

// SendOption adjusts delivery of a single challenge code.
type SendOption func(*SendOptions)

// WithSubject overrides the channel's subject line for this delivery, where
// the channel supports one.
func WithSubject(subject string) SendOption {
	return func(o *SendOptions) { o.Subject = subject }
}

// WithMessage overrides the message body for this delivery.
func WithMessage(message string) SendOption {
	return func(o *SendOptions) { o.Message = message }
}

// GenerateChallenge creates and persists a one-time code for (account,
// method) without attempting delivery. The method must resolve to a
// registered channel; ErrUnknownMethod otherwise. The persistence/delivery
// split lets hosts dispatch the send asynchronously or re-send later.
func (s *Service) GenerateChallenge(ctx context.Context, account Account, method string) (*Challenge, error) {
	method = strings.ToLower(method)
	if !s.registry.Has(method) {
		return nil, ErrUnknownMethod
	}

	code, err := randomNumericCode(s.cfg.CodeLength)
	if err != nil {
		return nil, err
	}

	now := s.now()
	challenge := &Challenge{
		ID:        uuid.New(),
		Owner:     account.MFAOwner(),
		Method:    method,
		Code:      code,
		ExpiresAt: now.Add(s.cfg.CodeTTL),
		CreatedAt: now,
	}

	if err := s.store.CreateChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("persisting challenge: %w", err)
	}

	s.logger.InfoContext(ctx, "challenge generated",
		logger.Component("challenge"),
		logger.Owner(challenge.Owner.String()),
		logger.Method(method),
	)

	return challenge, nil
}

// IssueChallenge generates a challenge and delivers its code through the
// method's channel. The challenge is durably created before the send is
// attempted; a delivery failure is logged but does not undo it. The
// guarantee is that a verifiable code exists, whether or not the user
// received it.
func (s *Service) IssueChallenge(ctx context.Context, account Account, method string, opts ...SendOption) (*Challenge, error) {
	challenge, err := s.GenerateChallenge(ctx, account, method)
	if err != nil {
		return nil, err
	}

	if err := s.SendChallenge(ctx, account, challenge, opts...); err != nil {
		s.logger.ErrorContext(ctx, "challenge delivery failed",
			logger.Component("challenge"),
			logger.Owner(challenge.Owner.String()),
			logger.Method(challenge.Method),
			logger.Error(err),
		)
	}

	return challenge, nil
}

// SendChallenge delivers an existing challenge's code through its channel,
// e.g. for an explicit "re-send code" action. Unlike IssueChallenge it
// reports the delivery error so hosts can show a retry affordance. Send
// options override the channel's subject or body for this delivery only.
func (s *Service) SendChallenge(ctx context.Context, account Account, challenge *Challenge, opts ...SendOption) error {
	channel := s.registry.Get(challenge.Method)
	if channel == nil {
		return ErrUnknownMethod
	}

	var options SendOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := channel.Send(ctx, account, challenge.Code, options); err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	return nil
}

// VerifyChallenge checks the submitted code against the most recently
// created active challenge for (account, method). On match the challenge is
// consumed atomically (of two racing verifications exactly one succeeds)
// and the method is enabled for the account. On mismatch the challenge stays
// active so the user may retry until it expires.
func (s *Service) VerifyChallenge(ctx context.Context, account Account, method, code string) (bool, error) {
	method = strings.ToLower(method)
	owner := account.MFAOwner()
	now := s.now()

	challenge, err := s.store.LatestActiveChallenge(ctx, owner, method, now)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading challenge: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		return false, nil
	}

	consumed, err := s.store.ConsumeChallenge(ctx, challenge.ID, now)
	if err != nil {
		return false, fmt.Errorf("consuming challenge: %w", err)
	}
	if !consumed {
		// Lost the consumption race to a concurrent verification.
		return false, nil
	}

	if _, err := s.enableMethod(ctx, owner, method, ""); err != nil {
		return false, err
	}

	s.logger.InfoContext(ctx, "challenge verified",
		logger.Component("challenge"),
		logger.Owner(owner.String()),
		logger.Method(method),
	)

	return true, nil
}

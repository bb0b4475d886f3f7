package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/account-recovery/internal/domain"
)

// codeSpace is the number of distinct six-digit codes.
var codeSpace = big.NewInt(1_000_000)

// Sender delivers a text message to a phone destination.
type Sender interface {
	Send(ctx context.Context, destination, message string) error
}

type Service interface {
	Issue(ctx context.Context, destination string) (*domain.OtpRecord, error)
	Verify(code string, pending *domain.OtpRecord) error
}

type ServiceDeps struct {
	Sender  Sender
	OrgName string
	Now     func() time.Time
}

type service struct {
	sender  Sender
	orgName string
	now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{sender: deps.Sender, orgName: deps.OrgName, now: now}
}

// FormatCode renders n as a zero-padded six-digit code.
func FormatCode(n int64) string {
	return fmt.Sprintf("%06d", n)
}

// Message is the text delivered with every code.
func Message(orgName, code string) string {
	return fmt.Sprintf("Your %s verification code is: %s", orgName, code)
}

// Issue generates a code and delivers it. The record is only returned when
// delivery succeeded; the caller keeps it as the single outstanding code.
func (s *service) Issue(ctx context.Context, destination string) (*domain.OtpRecord, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return nil, err
	}
	code := FormatCode(n.Int64())
	if err := s.sender.Send(ctx, destination, Message(s.orgName, code)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	return &domain.OtpRecord{Code: code, Destination: destination, IssuedAt: s.now().UTC()}, nil
}

func (s *service) Verify(code string, pending *domain.OtpRecord) error {
	if pending == nil || code != pending.Code {
		return domain.ErrOtpMismatch
	}
	return nil
}

package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/account-recovery/internal/domain"
)

type tokenRow struct {
	Token     string     `json:"token"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// TokenRepo persists verification tokens in the verification_tokens table.
type TokenRepo struct {
	rest Rest
}

func NewTokenRepo(rest Rest) *TokenRepo {
	return &TokenRepo{rest: rest}
}

func (r *TokenRepo) Create(_ context.Context, t *domain.VerificationToken) error {
	row := tokenRow{Token: t.Token, Email: t.Email, CreatedAt: t.CreatedAt, ExpiresAt: t.ExpiresAt, UsedAt: t.UsedAt}
	if _, _, err := r.rest.From(tableVerificationTokens).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert verification token: %w", err)
	}
	return nil
}

// Redeem stamps used_at in one filtered PATCH. No matching row means the
// token is unknown, belongs to another email, was used, or has expired.
func (r *TokenRepo) Redeem(_ context.Context, email, token string, now time.Time) error {
	var rows []tokenRow
	_, err := r.rest.From(tableVerificationTokens).
		Update(map[string]interface{}{"used_at": now.UTC()}, "representation", "").
		Eq("token", token).
		Eq("email", email).
		Is("used_at", "null").
		Gt("expires_at", now.UTC().Format(time.RFC3339Nano)).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("redeem verification token: %w", err)
	}
	if len(rows) == 0 {
		return domain.ErrInvalidOrExpiredToken
	}
	return nil
}

// Invalidate marks an unused token as used so it can never be redeemed.
func (r *TokenRepo) Invalidate(_ context.Context, token string, now time.Time) error {
	_, _, err := r.rest.From(tableVerificationTokens).
		Update(map[string]interface{}{"used_at": now.UTC()}, "minimal", "").
		Eq("token", token).
		Is("used_at", "null").
		Execute()
	if err != nil {
		return fmt.Errorf("invalidate verification token: %w", err)
	}
	return nil
}

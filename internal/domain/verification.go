package domain

import "time"

// VerificationToken proves control of an email address that has no identity yet.
// PK: token. Rows are never deleted; UsedAt is stamped once on redemption.
type VerificationToken struct {
	Token     string     `json:"token" dynamodbav:"token"`
	Email     string     `json:"email" dynamodbav:"email"`
	CreatedAt time.Time  `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	UsedAt    *time.Time `json:"used_at" dynamodbav:"used_at,omitempty"`
}

// Redeemable reports whether the token can still be claimed at now.
func (t *VerificationToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

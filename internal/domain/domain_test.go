package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerificationToken_Redeemable(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)

	assert.True(t, (&VerificationToken{ExpiresAt: now.Add(time.Hour)}).Redeemable(now))
	assert.False(t, (&VerificationToken{ExpiresAt: now}).Redeemable(now), "expiry instant is exclusive")
	assert.False(t, (&VerificationToken{ExpiresAt: now.Add(-time.Second)}).Redeemable(now))
	assert.False(t, (&VerificationToken{ExpiresAt: now.Add(time.Hour), UsedAt: &used}).Redeemable(now))
}

func TestRecoverySession_Reset(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &RecoverySession{
		ID:            "01S",
		CurrentStep:   StepPassword,
		Email:         "a@x.com",
		EmailVerified: true,
		UserID:        "u1",
		PendingOTP:    &OtpRecord{Code: "042017"},
		CreatedAt:     created,
	}
	s.Reset(created.Add(time.Minute))

	assert.Equal(t, "01S", s.ID)
	assert.Equal(t, StepEmail, s.CurrentStep)
	assert.Empty(t, s.Email)
	assert.False(t, s.EmailVerified)
	assert.Empty(t, s.UserID)
	assert.Nil(t, s.PendingOTP)
	assert.Equal(t, created, s.CreatedAt)
	assert.Equal(t, created.Add(time.Minute), s.UpdatedAt)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "email", StepEmail.String())
	assert.Equal(t, "channel", StepChannel.String())
	assert.Equal(t, "otp", StepOTP.String())
	assert.Equal(t, "security_question", StepSecurityQuestion.String())
	assert.Equal(t, "password", StepPassword.String())
	assert.Equal(t, "unknown", Step(9).String())
}

func TestFallbackQuestion(t *testing.T) {
	q, ok := FallbackQuestion("3")
	assert.True(t, ok)
	assert.Equal(t, "In which city were you born?", q.Question)

	_, ok = FallbackQuestion("99")
	assert.False(t, ok)
	_, ok = FallbackQuestion(CustomQuestionID)
	assert.False(t, ok)
}

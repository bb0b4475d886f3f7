package domain

import "time"

// Step is a position in the recovery wizard.
type Step int

const (
	StepEmail Step = iota + 1
	StepChannel
	StepOTP
	StepSecurityQuestion
	StepPassword
)

func (s Step) String() string {
	switch s {
	case StepEmail:
		return "email"
	case StepChannel:
		return "channel"
	case StepOTP:
		return "otp"
	case StepSecurityQuestion:
		return "security_question"
	case StepPassword:
		return "password"
	}
	return "unknown"
}

// RecoverySession is the server-held state of one wizard instance.
// PendingOTP is never rendered to clients.
type RecoverySession struct {
	ID            string     `json:"id"`
	CurrentStep   Step       `json:"current_step"`
	Email         string     `json:"email,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	UserID        string     `json:"user_id,omitempty"`
	PendingOTP    *OtpRecord `json:"pending_otp,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Reset returns the session to the email step, dropping everything learned so far.
func (s *RecoverySession) Reset(now time.Time) {
	s.CurrentStep = StepEmail
	s.Email = ""
	s.EmailVerified = false
	s.UserID = ""
	s.PendingOTP = nil
	s.UpdatedAt = now
}

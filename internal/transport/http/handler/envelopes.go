package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/account-recovery/internal/application/recovery"
	"github.com/account-recovery/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// SessionView is the client-facing shape of a RecoverySession.
// The outstanding OTP code is never part of it.
type SessionView struct {
	ID             string    `json:"id"`
	CurrentStep    int       `json:"current_step"`
	StepName       string    `json:"step_name"`
	Email          string    `json:"email,omitempty"`
	EmailVerified  bool      `json:"email_verified"`
	OtpDestination string    `json:"otp_destination,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StepEnvelope wraps every wizard response. Bearer is only set when a new
// session is opened.
type StepEnvelope struct {
	Bearer  string       `json:"Bearer,omitempty"`
	Session *SessionView `json:"session,omitempty"`
	Message string       `json:"message,omitempty"`
	Busy    bool         `json:"busy,omitempty"`
}

// QuestionsEnvelope wraps catalog responses.
type QuestionsEnvelope struct {
	Data []domain.SecurityQuestion `json:"data"`
}

func toSessionView(s *domain.RecoverySession) *SessionView {
	if s == nil {
		return nil
	}
	v := &SessionView{
		ID:            s.ID,
		CurrentStep:   int(s.CurrentStep),
		StepName:      s.CurrentStep.String(),
		Email:         s.Email,
		EmailVerified: s.EmailVerified,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.PendingOTP != nil {
		v.OtpDestination = s.PendingOTP.Destination
	}
	return v
}

func toStepEnvelope(res *recovery.StepResult) StepEnvelope {
	return StepEnvelope{Session: toSessionView(res.Session), Message: res.Notice, Busy: res.Busy}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}

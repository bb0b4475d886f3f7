package handler

import (
	"encoding/json"
	"net/http"

	"github.com/account-recovery/internal/application/recovery"
	"github.com/account-recovery/internal/transport/http/middleware"
)

// TokenSigner issues the bearer bound to a recovery session.
type TokenSigner interface {
	Sign(sessionID string) (string, error)
}

// RecoveryHandler serves the wizard steps.
type RecoveryHandler struct {
	svc    recovery.Service
	signer TokenSigner
}

func NewRecoveryHandler(svc recovery.Service, signer TokenSigner) *RecoveryHandler {
	return &RecoveryHandler{svc: svc, signer: signer}
}

func (h *RecoveryHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Start(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	bearer, err := h.signer.Sign(sess.ID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StepEnvelope{Bearer: bearer, Session: toSessionView(sess)})
}

func (h *RecoveryHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sess, err := h.svc.Get(r.Context(), sessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StepEnvelope{Session: toSessionView(sess)})
}

func (h *RecoveryHandler) Email(w http.ResponseWriter, r *http.Request) {
	var req recovery.EmailRequest
	h.step(w, r, &req, func(sessionID string) (*recovery.StepResult, error) {
		req.RemoteIP = middleware.ClientIP(r)
		return h.svc.SubmitEmail(r.Context(), sessionID, req)
	})
}

func (h *RecoveryHandler) Channel(w http.ResponseWriter, r *http.Request) {
	var req recovery.ChannelRequest
	h.step(w, r, &req, func(sessionID string) (*recovery.StepResult, error) {
		return h.svc.SubmitChannel(r.Context(), sessionID, req)
	})
}

func (h *RecoveryHandler) OTP(w http.ResponseWriter, r *http.Request) {
	var req recovery.OTPRequest
	h.step(w, r, &req, func(sessionID string) (*recovery.StepResult, error) {
		return h.svc.SubmitOTP(r.Context(), sessionID, req)
	})
}

func (h *RecoveryHandler) SecurityQuestion(w http.ResponseWriter, r *http.Request) {
	var req recovery.SecurityQuestionRequest
	h.step(w, r, &req, func(sessionID string) (*recovery.StepResult, error) {
		return h.svc.SubmitSecurityQuestion(r.Context(), sessionID, req)
	})
}

func (h *RecoveryHandler) Password(w http.ResponseWriter, r *http.Request) {
	var req recovery.PasswordRequest
	h.step(w, r, &req, func(sessionID string) (*recovery.StepResult, error) {
		return h.svc.SubmitPassword(r.Context(), sessionID, req)
	})
}

// ConfirmReset accepts the credential from the password reset mail.
func (h *RecoveryHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req recovery.ConfirmResetRequest
	h.step(w, r, &req, func(sessionID string) (*recovery.StepResult, error) {
		return h.svc.ConfirmReset(r.Context(), sessionID, req)
	})
}

// step decodes the body into req and runs submit for the bearer's session.
func (h *RecoveryHandler) step(w http.ResponseWriter, r *http.Request, req any, submit func(sessionID string) (*recovery.StepResult, error)) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := submit(sessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	status := http.StatusOK
	if res.Busy {
		status = http.StatusAccepted
	}
	writeJSON(w, status, toStepEnvelope(res))
}

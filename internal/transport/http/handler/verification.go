package handler

import (
	"encoding/json"
	"net/http"

	"github.com/account-recovery/internal/application/recovery"
)

// VerificationHandler redeems emailed verification links.
type VerificationHandler struct {
	svc    recovery.Service
	signer TokenSigner
}

func NewVerificationHandler(svc recovery.Service, signer TokenSigner) *VerificationHandler {
	return &VerificationHandler{svc: svc, signer: signer}
}

func (h *VerificationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req recovery.ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.ResumeFromLink(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	bearer, err := h.signer.Sign(res.Session.ID)
	if err != nil {
		httpError(w, err)
		return
	}
	env := toStepEnvelope(res)
	env.Bearer = bearer
	writeJSON(w, http.StatusOK, env)
}

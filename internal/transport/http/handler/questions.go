package handler

import (
	"encoding/json"
	"net/http"

	"github.com/account-recovery/internal/application/questions"
	"github.com/go-chi/chi/v5"
)

// QuestionsRequest is the body of a catalog operation.
type QuestionsRequest struct {
	Questions []questions.NewQuestion `json:"questions"`
}

// QuestionHandler exposes the security-question catalog.
type QuestionHandler struct {
	svc questions.Service
}

func NewQuestionHandler(svc questions.Service) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuestionsEnvelope{Data: list})
}

func (h *QuestionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	op, err := questions.ParseOp(chi.URLParam(r, "op"))
	if err != nil {
		httpError(w, err)
		return
	}
	var req QuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rows, err := h.svc.Apply(r.Context(), op, req.Questions)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, QuestionsEnvelope{Data: rows})
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/account-recovery/internal/application/questions"
	"github.com/account-recovery/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQuestionSvc struct{ mock.Mock }

func (m *mockQuestionSvc) Apply(ctx context.Context, op questions.Op, qs []questions.NewQuestion) ([]domain.SecurityQuestion, error) {
	args := m.Called(ctx, op, qs)
	rows, _ := args.Get(0).([]domain.SecurityQuestion)
	return rows, args.Error(1)
}

func (m *mockQuestionSvc) List(ctx context.Context) ([]domain.SecurityQuestion, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.SecurityQuestion)
	return rows, args.Error(1)
}

func (m *mockQuestionSvc) Resolve(ctx context.Context, questionID, customQuestion string) (*domain.SecurityQuestion, error) {
	args := m.Called(ctx, questionID, customQuestion)
	q, _ := args.Get(0).(*domain.SecurityQuestion)
	return q, args.Error(1)
}

func withChiOp(r *http.Request, op string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("op", op)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestQuestionsList(t *testing.T) {
	svc := &mockQuestionSvc{}
	svc.On("List", mock.Anything).Return(domain.FallbackQuestions, nil)
	h := NewQuestionHandler(svc)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/v1/security-questions", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var env QuestionsEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Len(t, env.Data, len(domain.FallbackQuestions))
}

func TestQuestionsApply_Create(t *testing.T) {
	svc := &mockQuestionSvc{}
	in := []questions.NewQuestion{{Question: "Favorite color?"}}
	svc.On("Apply", mock.Anything, questions.OpCreate, in).Return([]domain.SecurityQuestion{{ID: "01Q", Question: "Favorite color?"}}, nil)
	h := NewQuestionHandler(svc)

	r := withChiOp(httptest.NewRequest(http.MethodPost, "/v1/security-questions/create",
		bytes.NewBufferString(`{"questions":[{"question":"Favorite color?"}]}`)), "create")
	rr := httptest.NewRecorder()
	h.Apply(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestQuestionsApply_UnknownOp(t *testing.T) {
	svc := &mockQuestionSvc{}
	h := NewQuestionHandler(svc)

	r := withChiOp(httptest.NewRequest(http.MethodPost, "/v1/security-questions/drop", bytes.NewBufferString(`{}`)), "drop")
	rr := httptest.NewRecorder()
	h.Apply(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}

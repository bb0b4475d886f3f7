package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/account-recovery/internal/application/recovery"
	"github.com/account-recovery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRedeem_OpensSessionWithBearer(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockRecoverySvc{}
	req := recovery.ResumeRequest{Email: "new@x.com", Token: "tok", Step: 2}
	svc.On("ResumeFromLink", mock.Anything, req).Return(&recovery.StepResult{
		Session: &domain.RecoverySession{ID: "01NEW", CurrentStep: domain.StepChannel, Email: "new@x.com", EmailVerified: true},
		Notice:  recovery.NoticeEmailVerified,
	}, nil)
	h := NewVerificationHandler(svc, p)

	rr := httptest.NewRecorder()
	h.Redeem(rr, httptest.NewRequest(http.MethodPost, "/v1/verification/redeem",
		bytes.NewBufferString(`{"email":"new@x.com","token":"tok","step":2}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeStep(t, rr)
	assert.Equal(t, "new@x.com", env.Session.Email)
	assert.True(t, env.Session.EmailVerified)
	claims, err := p.Verify(env.Bearer)
	require.NoError(t, err)
	assert.Equal(t, "01NEW", claims.SessionID)
}

func TestRedeem_SpentToken(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockRecoverySvc{}
	svc.On("ResumeFromLink", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidOrExpiredToken)
	h := NewVerificationHandler(svc, p)

	rr := httptest.NewRecorder()
	h.Redeem(rr, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":"a@x.com","token":"t","step":2}`)))
	assert.Equal(t, http.StatusGone, rr.Code)
}

func TestRedeem_InvalidBody(t *testing.T) {
	h := NewVerificationHandler(&mockRecoverySvc{}, newTestJWTProvider(t))
	rr := httptest.NewRecorder()
	h.Redeem(rr, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

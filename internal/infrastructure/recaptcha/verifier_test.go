package recaptcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/account-recovery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteverify(t *testing.T, success bool) (*httptest.Server, *http.Request) {
	t.Helper()
	var got http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = *r
		w.Header().Set("Content-Type", "application/json")
		if success {
			_, _ = w.Write([]byte(`{"success":true,"hostname":"localhost"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestVerify_Success(t *testing.T) {
	srv, got := siteverify(t, true)
	v := NewVerifier("s3cret", srv.URL)

	require.NoError(t, v.Verify(context.Background(), "tok", "10.0.0.1"))
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "s3cret", got.PostForm.Get("secret"))
	assert.Equal(t, "tok", got.PostForm.Get("response"))
	assert.Equal(t, "10.0.0.1", got.PostForm.Get("remoteip"))
}

func TestVerify_Rejected(t *testing.T) {
	srv, _ := siteverify(t, false)
	err := NewVerifier("s3cret", srv.URL).Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, domain.ErrChallengeFailed)
	assert.Contains(t, err.Error(), "invalid captcha")
}

func TestVerify_EmptyToken(t *testing.T) {
	err := NewVerifier("s3cret", "http://127.0.0.1:1").Verify(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrChallengeFailed)
}

func TestVerify_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewVerifier("s3cret", url).Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestDisabled(t *testing.T) {
	assert.NoError(t, Disabled{}.Verify(context.Background(), "", ""))
}

package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallMeBot_Send(t *testing.T) {
	var gotPath, gotPhone, gotText, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPhone = r.URL.Query().Get("phone")
		gotText = r.URL.Query().Get("text")
		gotKey = r.URL.Query().Get("apikey")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewCallMeBot(srv.URL+"/", "k1").Send(context.Background(), "+62 812-3456-7890", "Your code is: 042017")
	require.NoError(t, err)
	assert.Equal(t, "/whatsapp.php", gotPath)
	assert.Equal(t, "6281234567890", gotPhone)
	assert.Equal(t, "Your code is: 042017", gotText)
	assert.Equal(t, "k1", gotKey)
}

func TestCallMeBot_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("APIKey is invalid"))
	}))
	defer srv.Close()

	err := NewCallMeBot(srv.URL, "bad").Send(context.Background(), "081234567890", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIKey is invalid")
	assert.False(t, IsUnreachable(err))
}

func TestCallMeBot_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewCallMeBot(url, "k").Send(context.Background(), "081234567890", "x")
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "081234567890", digits("0812-3456 7890"))
	assert.Equal(t, "", digits("abc"))
}

package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/current.json", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "Chicago", r.URL.Query().Get("q"))
		assert.Equal(t, "no", r.URL.Query().Get("aqi"))
		_, _ = w.Write([]byte(`{"current":{"temp_c":18}}`))
	}))
	defer srv.Close()

	body, err := NewClient(srv.URL+"/v1/", "k").Current(context.Background(), "Chicago")
	require.NoError(t, err)
	assert.JSONEq(t, `{"current":{"temp_c":18}}`, string(body))
}

func TestCurrent_DefaultCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultCity, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").Current(context.Background(), "")
	require.NoError(t, err)
}

func TestCurrent_Errors(t *testing.T) {
	_, err := NewClient("http://unused", "").Current(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"No matching location"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err = NewClient(srv.URL, "k").Current(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCurrent_ErrorOmitsKey(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", "SUPERSECRETKEY").Current(context.Background(), "Paris")
	require.ErrorIs(t, err, ErrUpstream)
	assert.NotContains(t, err.Error(), "SUPERSECRETKEY")
	assert.NotContains(t, err.Error(), "current.json")
}

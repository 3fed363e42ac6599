package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct{ OK bool }
	_, err := NewClient(time.Second).Send(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Form:   url.Values{"grant_type": {"password"}},
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestClient_SendJSONWithBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `["UPDATE_PASSWORD"]`, string(body))
		w.Header().Set("Location", "/users/abc")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	h, err := NewClient(time.Second).Send(context.Background(), Request{
		Method: http.MethodPut,
		URL:    srv.URL,
		Bearer: "tok",
		JSON:   []string{"UPDATE_PASSWORD"},
		Accept: []int{http.StatusCreated, http.StatusNoContent},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/users/abc", h.Get("Location"))
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	_, err := NewClient(time.Second).Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "maintenance", se.Body)
	assert.True(t, se.Transient())
	assert.False(t, (&StatusError{StatusCode: http.StatusUnauthorized}).Transient())
}

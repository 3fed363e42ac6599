package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeycloak struct {
	*httptest.Server
	adminTokens int32
	resetFor    string
	created     User
}

func newFakeKeycloak(t *testing.T) *fakeKeycloak {
	fk := &fakeKeycloak{}
	mux := http.NewServeMux()

	mux.HandleFunc("/realms/jobs/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.PostForm.Get("grant_type") {
		case "client_credentials":
			atomic.AddInt32(&fk.adminTokens, 1)
			writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "admin", ExpiresIn: 300})
		case "password":
			if r.PostForm.Get("username") == "ada@example.com" && r.PostForm.Get("password") == "correct-horse" {
				writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "user-at", RefreshToken: "user-rt", ExpiresIn: 300})
				return
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant"})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/realms/jobs/protocol/openid-connect/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, UserInfo{Sub: "u-1", Email: "ada@example.com", Name: "Ada Lovelace"})
	})
	mux.HandleFunc("/realms/jobs/protocol/openid-connect/token/introspect", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		writeJSON(w, http.StatusOK, TokenInfo{Active: r.PostForm.Get("token") == "user-at", Sub: "u-1"})
	})
	mux.HandleFunc("/realms/jobs/protocol/openid-connect/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/admin/realms/jobs/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodPost:
			var u User
			require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
			if u.Email == "taken@example.com" {
				w.WriteHeader(http.StatusConflict)
				return
			}
			fk.created = u
			w.Header().Set("Location", fk.URL+"/admin/realms/jobs/users/new-id")
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			if r.URL.Query().Get("email") == "ada@example.com" {
				writeJSON(w, http.StatusOK, []User{{ID: "u-1", Email: "ada@example.com"}})
				return
			}
			writeJSON(w, http.StatusOK, []User{})
		}
	})
	mux.HandleFunc("/admin/realms/jobs/users/u-1/execute-actions-email", func(w http.ResponseWriter, r *http.Request) {
		var actions []string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&actions))
		assert.Equal(t, []string{"UPDATE_PASSWORD"}, actions)
		fk.resetFor = "u-1"
		w.WriteHeader(http.StatusNoContent)
	})

	fk.Server = httptest.NewServer(mux)
	t.Cleanup(fk.Close)
	return fk
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(fk *fakeKeycloak) *KeycloakClient {
	return NewKeycloakClient(fk.URL+"/", "jobs", "tracker", "secret", 2*time.Second)
}

func TestKeycloak_PasswordGrantAndUserInfo(t *testing.T) {
	fk := newFakeKeycloak(t)
	c := newTestClient(fk)
	ctx := context.Background()

	tok, err := c.PasswordGrant(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "user-rt", tok.RefreshToken)

	info, err := c.UserInfo(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", info.Sub)

	_, err = c.PasswordGrant(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestKeycloak_CreateUserCachesAdminToken(t *testing.T) {
	fk := newFakeKeycloak(t)
	c := newTestClient(fk)
	ctx := context.Background()

	u, err := c.CreateUser(ctx, &User{Email: "grace@example.com", FirstName: "Grace"}, "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, "new-id", u.ID)
	assert.Empty(t, u.Credentials)

	assert.Equal(t, "grace@example.com", fk.created.Username)
	assert.True(t, fk.created.Enabled)
	require.Len(t, fk.created.Credentials, 1)
	assert.Equal(t, "password", fk.created.Credentials[0].Type)
	assert.False(t, fk.created.Credentials[0].Temporary)

	_, err = c.CreateUser(ctx, &User{Email: "taken@example.com"}, "s3cretpass")
	assert.ErrorIs(t, err, ErrUserExists)

	assert.EqualValues(t, 1, atomic.LoadInt32(&fk.adminTokens))
}

func TestKeycloak_LookupAndReset(t *testing.T) {
	fk := newFakeKeycloak(t)
	c := newTestClient(fk)
	ctx := context.Background()

	u, err := c.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, c.SendPasswordReset(ctx, u.ID))
	assert.Equal(t, "u-1", fk.resetFor)

	_, err = c.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestKeycloak_ValidateTokenAndLogout(t *testing.T) {
	fk := newFakeKeycloak(t)
	c := newTestClient(fk)
	ctx := context.Background()

	info, err := c.ValidateToken(ctx, "user-at")
	require.NoError(t, err)
	assert.Equal(t, "u-1", info.Sub)

	_, err = c.ValidateToken(ctx, "stale")
	assert.ErrorIs(t, err, ErrTokenInactive)

	assert.NoError(t, c.Logout(ctx, "user-rt"))
}

func TestKeycloak_UnreachableIsTransient(t *testing.T) {
	c := NewKeycloakClient("http://127.0.0.1:1", "jobs", "tracker", "", 200*time.Millisecond)
	_, err := c.PasswordGrant(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidGrant)
	assert.True(t, isTransientHTTPError(err))
}

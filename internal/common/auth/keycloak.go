// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	httpclient "jobtracker/internal/common/http"
)

var (
	ErrInvalidGrant  = errors.New("keycloak: invalid grant")
	ErrUserExists    = errors.New("keycloak: user already exists")
	ErrUserNotFound  = errors.New("keycloak: user not found")
	ErrTokenInactive = errors.New("keycloak: token inactive")
)

// KeycloakClient talks to one realm. Admin calls use a client-credentials
// token that is cached until shortly before it expires.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	http         *httpclient.Client

	mu          sync.Mutex
	adminToken  string
	tokenExpiry time.Time
}

type User struct {
	ID            string       `json:"id,omitempty"`
	Username      string       `json:"username"`
	Email         string       `json:"email"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	Enabled       bool         `json:"enabled"`
	EmailVerified bool         `json:"emailVerified"`
	Credentials   []Credential `json:"credentials,omitempty"`
}

type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// UserInfo is the OIDC userinfo payload.
type UserInfo struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

type TokenInfo struct {
	Active   bool   `json:"active"`
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Exp      int64  `json:"exp"`
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string, timeout time.Duration) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpclient.NewClient(timeout),
	}
}

func (c *KeycloakClient) oidcURL(endpoint string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s", c.baseURL, c.realm, endpoint)
}

func (c *KeycloakClient) adminURL(parts ...string) string {
	return fmt.Sprintf("%s/admin/realms/%s/%s", c.baseURL, c.realm, path.Join(parts...))
}

func (c *KeycloakClient) clientForm(extra url.Values) url.Values {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}
	for k, v := range extra {
		form[k] = v
	}
	return form
}

func (c *KeycloakClient) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adminToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.adminToken, nil
	}

	var tok TokenResponse
	_, err := c.http.Send(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.oidcURL("token"),
		Form:   c.clientForm(url.Values{"grant_type": {"client_credentials"}}),
	}, &tok)
	if err != nil {
		return "", fmt.Errorf("admin token: %w", err)
	}

	c.adminToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-30) * time.Second)
	return c.adminToken, nil
}

// PasswordGrant exchanges user credentials for tokens. Wrong credentials
// and unknown users both yield ErrInvalidGrant.
func (c *KeycloakClient) PasswordGrant(ctx context.Context, username, password string) (*TokenResponse, error) {
	var tok TokenResponse
	_, err := c.http.Send(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.oidcURL("token"),
		Form: c.clientForm(url.Values{
			"grant_type": {"password"},
			"username":   {username},
			"password":   {password},
			"scope":      {"openid email profile"},
		}),
	}, &tok)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusBadRequest) {
			return nil, ErrInvalidGrant
		}
		return nil, fmt.Errorf("password grant: %w", err)
	}
	return &tok, nil
}

func (c *KeycloakClient) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	var info UserInfo
	if _, err := c.http.Send(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.oidcURL("userinfo"),
		Bearer: accessToken,
	}, &info); err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	return &info, nil
}

// CreateUser registers an enabled user with a permanent password and
// returns it with the id taken from the Location header.
func (c *KeycloakClient) CreateUser(ctx context.Context, user *User, password string) (*User, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := *user
	body.Enabled = true
	if body.Username == "" {
		body.Username = body.Email
	}
	body.Credentials = []Credential{{Type: "password", Value: password}}

	header, err := c.http.Send(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.adminURL("users"),
		Bearer: token,
		JSON:   body,
		Accept: []int{http.StatusCreated},
	}, nil)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	created := body
	created.Credentials = nil
	if loc := header.Get("Location"); loc != "" {
		created.ID = path.Base(loc)
	}
	return &created, nil
}

func (c *KeycloakClient) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var users []User
	if _, err := c.http.Send(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.adminURL("users") + "?exact=true&email=" + url.QueryEscape(email),
		Bearer: token,
	}, &users); err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// SendPasswordReset asks Keycloak to mail the user an UPDATE_PASSWORD link.
func (c *KeycloakClient) SendPasswordReset(ctx context.Context, userID string) error {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return err
	}
	_, err = c.http.Send(ctx, httpclient.Request{
		Method: http.MethodPut,
		URL:    c.adminURL("users", userID, "execute-actions-email"),
		Bearer: token,
		JSON:   []string{"UPDATE_PASSWORD"},
		Accept: []int{http.StatusOK, http.StatusNoContent},
	}, nil)
	if err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

func (c *KeycloakClient) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.http.Send(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.oidcURL("logout"),
		Form:   c.clientForm(url.Values{"refresh_token": {refreshToken}}),
		Accept: []int{http.StatusOK, http.StatusNoContent},
	}, nil)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ValidateToken introspects an access token.
func (c *KeycloakClient) ValidateToken(ctx context.Context, token string) (*TokenInfo, error) {
	var info TokenInfo
	if _, err := c.http.Send(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.oidcURL("token/introspect"),
		Form:   c.clientForm(url.Values{"token": {token}}),
	}, &info); err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}
	if !info.Active {
		return nil, ErrTokenInactive
	}
	return &info, nil
}

func isTransientHTTPError(err error) bool {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return err != nil
}

// internal/common/auth/session.go
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"sync"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"
)

const minPasswordLength = 8

type EventType string

const (
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
)

// Event is delivered to OnAuthStateChange listeners. User is nil on sign-out.
type Event struct {
	Type EventType
	User *models.User
}

// IdentityProvider is the subset of KeycloakClient a Session needs.
type IdentityProvider interface {
	PasswordGrant(ctx context.Context, username, password string) (*TokenResponse, error)
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
	CreateUser(ctx context.Context, user *User, password string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SendPasswordReset(ctx context.Context, userID string) error
	Logout(ctx context.Context, refreshToken string) error
}

// Session holds the signed-in user for this process.
type Session struct {
	idp    IdentityProvider
	logger logger.Logger

	mu        sync.RWMutex
	user      *models.User
	tokens    *TokenResponse
	listeners map[int]func(Event)
	nextID    int
}

func NewSession(idp IdentityProvider, log logger.Logger) *Session {
	return &Session{
		idp:       idp,
		logger:    logger.Component(log, "auth"),
		listeners: make(map[int]func(Event)),
	}
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewInvalidCredentialsError(nil)
	}

	tok, err := s.idp.PasswordGrant(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidGrant) {
			s.logger.Info("Sign-in rejected", map[string]interface{}{"email_hash": emailFingerprint(email)})
			return nil, apperrors.NewInvalidCredentialsError(nil)
		}
		s.logger.Error("Sign-in failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewAuthUnavailableError(err)
	}

	info, err := s.idp.UserInfo(ctx, tok.AccessToken)
	if err != nil {
		s.logger.Error("Userinfo lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewAuthUnavailableError(err)
	}

	user := &models.User{ID: info.Sub, Email: info.Email, Name: info.Name}
	if user.Email == "" {
		user.Email = email
	}
	if user.Name == "" {
		user.Name = info.PreferredUsername
	}

	s.mu.Lock()
	s.user = user
	s.tokens = tok
	s.mu.Unlock()

	s.logger.Info("Signed in", map[string]interface{}{"user_id": user.ID})
	s.emit(Event{Type: EventSignedIn, User: copyUser(user)})
	return copyUser(user), nil
}

// SignUp creates the account and signs in with it.
func (s *Session) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.TrimSpace(email)
	var fields []apperrors.FieldError
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(password) < minPasswordLength {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError(fields)
	}

	first, last := splitName(name)
	_, err := s.idp.CreateUser(ctx, &User{Email: email, FirstName: first, LastName: last}, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			// Same message as any other rejection so existing accounts are not revealed.
			return nil, apperrors.NewSignUpFailedError(nil)
		case isTransientHTTPError(err):
			s.logger.Error("Sign-up failed", map[string]interface{}{"error": err.Error()})
			return nil, apperrors.NewAuthUnavailableError(err)
		default:
			s.logger.Warn("Sign-up rejected", map[string]interface{}{"error": err.Error()})
			return nil, apperrors.NewSignUpFailedError(nil)
		}
	}

	return s.SignIn(ctx, email, password)
}

// SignOut clears the session even if the provider logout fails.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	tok := s.tokens
	wasSignedIn := s.user != nil
	s.user = nil
	s.tokens = nil
	s.mu.Unlock()

	if tok != nil && tok.RefreshToken != "" {
		if err := s.idp.Logout(ctx, tok.RefreshToken); err != nil {
			s.logger.Warn("Provider logout failed", map[string]interface{}{"error": err.Error()})
		}
	}

	if wasSignedIn {
		s.emit(Event{Type: EventSignedOut})
	}
	return nil
}

// ResetPassword succeeds from the caller's point of view whether or not the
// address belongs to an account.
func (s *Session) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return apperrors.NewValidationError([]apperrors.FieldError{
			{Field: "email", Message: "must be a valid email address"},
		})
	}

	user, err := s.idp.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Debug("Password reset for unknown address", nil)
			return nil
		}
		s.logger.Error("Password reset lookup failed", map[string]interface{}{"error": err.Error()})
		return apperrors.NewAuthUnavailableError(err)
	}

	if err := s.idp.SendPasswordReset(ctx, user.ID); err != nil {
		s.logger.Error("Password reset mail failed", map[string]interface{}{"error": err.Error()})
		return apperrors.NewAuthUnavailableError(err)
	}
	return nil
}

// CurrentUser returns nil when signed out.
func (s *Session) CurrentUser(ctx context.Context) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user), nil
}

func (s *Session) OnAuthStateChange(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) emit(evt Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, " "); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// emailFingerprint lets failed attempts for one address be correlated in
// logs without recording the address.
func emailFingerprint(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:6])
}

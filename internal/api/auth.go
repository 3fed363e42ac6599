// internal/api/auth.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "jobtracker/internal/common/errors"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type resetRequest struct {
	Email string `json:"email"`
}

// authService reports an unavailable provider when the process runs
// without one.
func (s *Server) authService(c *gin.Context) (AuthService, bool) {
	if s.deps.Auth == nil {
		s.fail(c, apperrors.NewAuthUnavailableError(nil))
		return nil, false
	}
	return s.deps.Auth, true
}

func (s *Server) currentUser(c *gin.Context) {
	auth, ok := s.authService(c)
	if !ok {
		return
	}
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if u == nil {
		s.fail(c, apperrors.NewAuthRequiredError())
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (s *Server) signIn(c *gin.Context) {
	auth, ok := s.authService(c)
	if !ok {
		return
	}
	var req credentialsRequest
	if !s.bind(c, &req) {
		return
	}
	u, err := auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (s *Server) signUp(c *gin.Context) {
	auth, ok := s.authService(c)
	if !ok {
		return
	}
	var req credentialsRequest
	if !s.bind(c, &req) {
		return
	}
	u, err := auth.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

func (s *Server) signOut(c *gin.Context) {
	auth, ok := s.authService(c)
	if !ok {
		return
	}
	if err := auth.SignOut(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// resetPassword answers 202 for any well-formed address.
func (s *Server) resetPassword(c *gin.Context) {
	auth, ok := s.authService(c)
	if !ok {
		return
	}
	var req resetRequest
	if !s.bind(c, &req) {
		return
	}
	if err := auth.ResetPassword(c.Request.Context(), req.Email); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "If an account exists for that address, a reset link has been sent."})
}

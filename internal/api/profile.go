// internal/api/profile.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/models"
)

func (s *Server) getProfile(c *gin.Context) {
	p := s.deps.Store.Profile()
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"profile": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (s *Server) saveProfile(c *gin.Context) {
	var upd models.ProfileUpdate
	if !s.bind(c, &upd) {
		return
	}
	p, err := s.deps.Sync.SaveProfile(c.Request.Context(), upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

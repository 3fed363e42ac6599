// internal/api/system.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/notify"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   s.deps.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"reason": err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   s.deps.Now().Format(time.RFC3339),
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Sync.Status())
}

type connectivityRequest struct {
	Online *bool `json:"online"`
}

func (s *Server) setConnectivity(c *gin.Context) {
	var req connectivityRequest
	if !s.bind(c, &req) {
		return
	}
	if req.Online == nil {
		s.fail(c, missingField("online"))
		return
	}
	if err := s.deps.Sync.SetOnline(c.Request.Context(), *req.Online); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.deps.Sync.Status())
}

func (s *Server) resync(c *gin.Context) {
	if err := s.deps.Sync.Resync(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.deps.Sync.Status())
}

// resetLocalData wipes the local snapshot. A signed-in user's jobs and
// profile come back on the next resync.
func (s *Server) resetLocalData(c *gin.Context) {
	if err := s.deps.Store.Reset(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) notices(c *gin.Context) {
	out := []notify.Notice{}
	if s.deps.Notices != nil {
		out = s.deps.Notices.Drain()
	}
	c.JSON(http.StatusOK, gin.H{"notices": out})
}

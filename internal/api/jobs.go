// internal/api/jobs.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/models"
	"jobtracker/internal/search"
)

func missingField(name string) error {
	return apperrors.NewValidationError([]apperrors.FieldError{{Field: name, Message: "is required"}})
}

// listJobs returns the local list, optionally narrowed by ?status=.
func (s *Server) listJobs(c *gin.Context) {
	jobs := s.deps.Store.Jobs()
	if raw := c.Query("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			s.fail(c, apperrors.NewValidationError([]apperrors.FieldError{
				{Field: "status", Message: "unknown status"},
			}))
			return
		}
		filtered := make([]models.Job, 0, len(jobs))
		for _, j := range jobs {
			if j.Status == st {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	c.JSON(http.StatusOK, gin.H{"jobs": nonNil(jobs), "count": len(jobs)})
}

func (s *Server) getJob(c *gin.Context) {
	id := c.Param("id")
	job, ok := s.deps.Store.Job(id)
	if !ok {
		s.fail(c, apperrors.NewNotFoundError("job", id))
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) createJob(c *gin.Context) {
	var in models.JobInput
	if !s.bind(c, &in) {
		return
	}
	job, err := s.deps.Sync.CreateJob(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (s *Server) updateJob(c *gin.Context) {
	var upd models.JobUpdate
	if !s.bind(c, &upd) {
		return
	}
	job, err := s.deps.Sync.UpdateJob(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) deleteJob(c *gin.Context) {
	if err := s.deps.Sync.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) searchJobs(c *gin.Context) {
	limit := search.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.fail(c, apperrors.NewValidationError([]apperrors.FieldError{
				{Field: "limit", Message: "must be a positive integer"},
			}))
			return
		}
		limit = n
	}

	query := c.Query("q")
	var hits []search.Hit
	if s.deps.Search != nil {
		hits = s.deps.Search.Search(c.Request.Context(), s.userID(c), query, limit)
	} else {
		hits = search.MatchLocal(s.deps.Store.Jobs(), query, limit)
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "hits": nonNil(hits)})
}

// userID is the signed-in user's id, or empty when signed out.
func (s *Server) userID(c *gin.Context) string {
	if u := s.deps.Sync.Status().User; u != nil {
		return u.ID
	}
	return ""
}

// internal/api/insights.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/analytics"
	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/common/validation"
	"jobtracker/internal/models"
)

const defaultUpcomingDays = 7

func (s *Server) analyticsReport(c *gin.Context) {
	c.JSON(http.StatusOK, analytics.Build(s.deps.Store.Jobs(), s.deps.Now()))
}

func (s *Server) upcoming(c *gin.Context) {
	days := defaultUpcomingDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 365 {
			s.fail(c, apperrors.NewValidationError([]apperrors.FieldError{
				{Field: "days", Message: "must be between 0 and 365"},
			}))
			return
		}
		days = n
	}
	actions := analytics.UpcomingActions(s.deps.Store.Jobs(), s.deps.Now(), time.Duration(days)*24*time.Hour)
	c.JSON(http.StatusOK, gin.H{"actions": nonNil(actions)})
}

func (s *Server) getGoals(c *gin.Context) {
	jobs := s.deps.Store.Jobs()
	goals := s.deps.Store.Goals()
	now := s.deps.Now()
	c.JSON(http.StatusOK, gin.H{
		"goals":   goals,
		"weekly":  analytics.WeeklyProgress(jobs, goals, now),
		"monthly": analytics.MonthlyProgress(jobs, goals, now),
		"history": nonNil(s.deps.Store.GoalHistory()),
	})
}

func (s *Server) setWeeklyGoals(c *gin.Context) {
	var w models.WeeklyGoals
	if !s.bind(c, &w) {
		return
	}
	if err := validation.Validate(validation.WeeklyGoals, w); err != nil {
		s.fail(c, err)
		return
	}
	s.deps.Store.SetWeeklyGoals(w)
	c.JSON(http.StatusOK, s.deps.Store.Goals())
}

func (s *Server) setMonthlyGoals(c *gin.Context) {
	var m models.MonthlyGoals
	if !s.bind(c, &m) {
		return
	}
	if err := validation.Validate(validation.MonthlyGoals, m); err != nil {
		s.fail(c, err)
		return
	}
	s.deps.Store.SetMonthlyGoals(m)
	c.JSON(http.StatusOK, s.deps.Store.Goals())
}

type networkingRequest struct {
	At *time.Time `json:"at"`
}

// logNetworking records one networking event, now unless the body says
// otherwise. An empty body is accepted.
func (s *Server) logNetworking(c *gin.Context) {
	var req networkingRequest
	if c.Request.ContentLength != 0 && !s.bind(c, &req) {
		return
	}
	at := s.deps.Now()
	if req.At != nil {
		at = *req.At
	}
	s.deps.Store.LogNetworkingEvent(at)
	s.deps.Store.RecordActivity(s.deps.Now())

	jobs := s.deps.Store.Jobs()
	c.JSON(http.StatusCreated, gin.H{
		"monthly": analytics.MonthlyProgress(jobs, s.deps.Store.Goals(), s.deps.Now()),
	})
}

type closeWeekRequest struct {
	WeekStart *time.Time `json:"week_start"`
}

// closeWeek scores a finished week against the current weekly goals and
// appends it to the history. The default is the week before this one.
func (s *Server) closeWeek(c *gin.Context) {
	var req closeWeekRequest
	if c.Request.ContentLength != 0 && !s.bind(c, &req) {
		return
	}

	now := s.deps.Now()
	weekStart := analytics.WeekStart(now).AddDate(0, 0, -7)
	if req.WeekStart != nil {
		weekStart = analytics.WeekStart(*req.WeekStart)
	}
	if !weekStart.Before(analytics.WeekStart(now)) {
		s.fail(c, apperrors.NewValidationError([]apperrors.FieldError{
			{Field: "week_start", Message: "week has not finished yet"},
		}))
		return
	}

	entry := analytics.CloseWeek(s.deps.Store.Jobs(), s.deps.Store.Goals(), weekStart)
	recorded := s.deps.Store.AppendGoalHistory(entry)
	status := http.StatusCreated
	if !recorded {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"entry":    entry,
		"recorded": recorded,
		"streaks":  s.deps.Store.Streaks(),
	})
}

func (s *Server) streaks(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Store.Streaks())
}

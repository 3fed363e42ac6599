// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"
	"jobtracker/internal/notify"
	"jobtracker/internal/search"
	"jobtracker/internal/store"
)

// SyncService is the coordinator surface the handlers drive.
type SyncService interface {
	Status() models.SyncStatus
	SetOnline(ctx context.Context, online bool) error
	Resync(ctx context.Context) error
	CreateJob(ctx context.Context, in models.JobInput) (models.Job, error)
	UpdateJob(ctx context.Context, id string, upd models.JobUpdate) (models.Job, error)
	DeleteJob(ctx context.Context, id string) error
	SaveProfile(ctx context.Context, upd models.ProfileUpdate) (models.UserProfile, error)
}

type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignUp(ctx context.Context, email, password, name string) (*models.User, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	CurrentUser(ctx context.Context) (*models.User, error)
}

type Searcher interface {
	Search(ctx context.Context, userID, query string, limit int) []search.Hit
}

type NoticeQueue interface {
	Drain() []notify.Notice
}

// Deps wires the server. Auth may be nil when running offline only; Ready
// may be nil, in which case the process is always ready.
type Deps struct {
	Store   *store.Store
	Sync    SyncService
	Auth    AuthService
	Search  Searcher
	Notices NoticeQueue
	Ready   func(ctx context.Context) error
	Now     func() time.Time
}

type Server struct {
	deps   Deps
	logger logger.Logger
	router *gin.Engine
}

func NewServer(deps Deps, log logger.Logger) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		deps:   deps,
		logger: logger.Component(log, "api"),
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), requestID(), s.accessLog())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/status", s.status)
	api.POST("/connectivity", s.setConnectivity)
	api.POST("/resync", s.resync)
	api.GET("/notices", s.notices)
	api.DELETE("/local-data", s.resetLocalData)

	jobs := api.Group("/jobs")
	{
		jobs.GET("", s.listJobs)
		jobs.POST("", s.createJob)
		jobs.GET("/search", s.searchJobs)
		jobs.GET("/:id", s.getJob)
		jobs.PATCH("/:id", s.updateJob)
		jobs.DELETE("/:id", s.deleteJob)
	}

	api.GET("/profile", s.getProfile)
	api.PUT("/profile", s.saveProfile)

	api.GET("/analytics", s.analyticsReport)
	api.GET("/analytics/upcoming", s.upcoming)

	goals := api.Group("/goals")
	{
		goals.GET("", s.getGoals)
		goals.PUT("/weekly", s.setWeeklyGoals)
		goals.PUT("/monthly", s.setMonthlyGoals)
		goals.POST("/networking", s.logNetworking)
		goals.POST("/close-week", s.closeWeek)
	}
	api.GET("/streaks", s.streaks)

	docs := api.Group("/documents")
	{
		docs.GET("", s.listAllDocuments)
		docs.GET("/:kind", s.listDocuments)
		docs.POST("/:kind", s.addDocument)
		docs.PATCH("/:kind/:id", s.updateDocument)
		docs.DELETE("/:kind/:id", s.deleteDocument)
		docs.POST("/:kind/:id/primary", s.setPrimaryDocument)
	}

	auth := api.Group("/auth")
	{
		auth.GET("/user", s.currentUser)
		auth.POST("/signin", s.signIn)
		auth.POST("/signup", s.signUp)
		auth.POST("/signout", s.signOut)
		auth.POST("/reset", s.resetPassword)
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  c.GetString("requestID"),
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			s.logger.Error("HTTP server error", fields)
		case status >= 400:
			s.logger.Warn("HTTP client error", fields)
		default:
			s.logger.Debug("HTTP request", fields)
		}
	}
}

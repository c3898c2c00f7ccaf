package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
)

type account struct {
	user     api.User
	password string
}

type mediaJob struct {
	job   api.AnalysisJob
	kind  api.MediaKind
	polls int
}

type server struct {
	echo       *echo.Echo
	logger     *zap.Logger
	mediaPolls int

	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	messagesTotal prometheus.Counter

	mu       sync.Mutex
	accounts map[string]account // keyed by email
	tokens   map[string]string  // token -> email
	jobs     map[string]*mediaJob
	messages int
	ratings  []int
}

func newServer(logger *zap.Logger, mediaPolls int) *server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &server{
		echo:       e,
		logger:     logger,
		mediaPolls: mediaPolls,
		accounts:   make(map[string]account),
		tokens:     make(map[string]string),
		jobs:       make(map[string]*mediaJob),
		registry:   prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stubbackend_requests_total",
			Help: "HTTP requests served, by method, path, and status.",
		}, []string{"method", "path", "status"}),
		messagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stubbackend_messages_total",
			Help: "Chat messages analyzed.",
		}),
	}
	s.registry.MustRegister(s.requestsTotal, s.messagesTotal)

	s.seedAccounts()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			s.requestsTotal.WithLabelValues(
				c.Request().Method, c.Path(), strconv.Itoa(c.Response().Status),
			).Inc()
			return err
		}
	})

	s.registerRoutes()
	return s
}

func (s *server) seedAccounts() {
	s.accounts["user@example.com"] = account{
		user: api.User{
			ID:    uuid.NewString(),
			Email: "user@example.com",
			Name:  "Test User",
			Role:  api.RoleUser,
		},
		password: "password",
	}
	s.accounts["admin@example.com"] = account{
		user: api.User{
			ID:    uuid.NewString(),
			Email: "admin@example.com",
			Name:  "Test Admin",
			Role:  api.RoleAdmin,
		},
		password: "admin",
	}
}

func (s *server) registerRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/auth/token", s.handleToken)
	v1.GET("/auth/verify", s.handleVerify)
	v1.POST("/auth/register", s.handleRegister)
	v1.GET("/categories", s.handleCategories)
	v1.GET("/categories/:id", s.handleCategory)
	v1.POST("/chat/analyze", s.handleAnalyze)
	v1.POST("/chat/:id/feedback", s.handleMessageFeedback)
	v1.POST("/feedback/submit", s.handleSubmitFeedback)
	v1.GET("/feedback/stats", s.handleFeedbackStats)
	v1.POST("/media/voice", s.handleUpload(api.MediaVoice))
	v1.POST("/media/image", s.handleUpload(api.MediaImage))
	v1.GET("/media/analysis/:id", s.handleAnalysis)
	v1.GET("/admin/metrics", s.handleAdminMetrics)
	v1.GET("/admin/users", s.handleAdminUsers)
	v1.GET("/admin/roles", s.handleAdminRoles)
	v1.GET("/admin/logs", s.handleAdminLogs)
}

func (s *server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Warn("shutdown failed", zap.Error(err))
	}
}

// authenticate resolves the bearer token to a user. Missing or unknown
// tokens yield a 401 matching the real backend's error body.
func (s *server) authenticate(c echo.Context) (api.User, error) {
	auth := c.Request().Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return api.User{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[token]
	if !ok {
		return api.User{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return s.accounts[email].user, nil
}

func (s *server) requireAdmin(c echo.Context) (api.User, error) {
	user, err := s.authenticate(c)
	if err != nil {
		return api.User{}, err
	}
	if !user.IsAdmin() {
		return api.User{}, echo.NewHTTPError(http.StatusForbidden, "admin only")
	}
	return user, nil
}

func (s *server) handleToken(c echo.Context) error {
	email := c.FormValue("username")
	password := c.FormValue("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok || acct.password != password {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token := uuid.NewString()
	s.tokens[token] = email

	return c.JSON(http.StatusOK, api.TokenResponse{
		AccessToken: token,
		User:        acct.user,
	})
}

func (s *server) handleVerify(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.VerifyResponse{User: user})
}

func (s *server) handleRegister(c echo.Context) error {
	var req api.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	}

	acct := account{
		user: api.User{
			ID:    uuid.NewString(),
			Email: req.Email,
			Name:  req.Name,
			Role:  api.RoleUser,
		},
		password: req.Password,
	}
	s.accounts[req.Email] = acct

	return c.JSON(http.StatusCreated, acct.user)
}

var categories = []api.Category{
	{ID: "technical", Name: "Technical Support", Description: "Product issues, bugs, and troubleshooting"},
	{ID: "billing", Name: "Billing", Description: "Invoices, payments, and refunds"},
	{ID: "account", Name: "Account", Description: "Sign-in, profile, and security"},
	{ID: "general", Name: "General", Description: "Everything else"},
}

func (s *server) handleCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, categories)
}

func (s *server) handleCategory(c echo.Context) error {
	id := c.Param("id")
	for _, cat := range categories {
		if cat.ID == id {
			return c.JSON(http.StatusOK, cat)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "unknown category")
}

func (s *server) handleAnalyze(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	var req api.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	s.mu.Lock()
	s.messages++
	s.mu.Unlock()
	s.messagesTotal.Inc()

	s.logger.Debug("analyze",
		zap.String("user", user.Email),
		zap.String("category", req.Category),
		zap.Int("length", len(req.Content)))

	return c.JSON(http.StatusOK, api.AnalyzeResponse{
		ID:            uuid.NewString(),
		Content:       fmt.Sprintf("Thanks for reaching out about %s. A specialist will follow up on: %q", req.Category, req.Content),
		Confidence:    0.87,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		UserMessageID: uuid.NewString(),
	})
}

func (s *server) handleMessageFeedback(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	var body struct {
		Rating int `json:"rating"`
	}
	if err := c.Bind(&body); err != nil || body.Rating < 1 || body.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be 1-5")
	}

	s.mu.Lock()
	s.ratings = append(s.ratings, body.Rating)
	s.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

func (s *server) handleSubmitFeedback(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	var sub api.FeedbackSubmission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	s.mu.Lock()
	if sub.Rating >= 1 && sub.Rating <= 5 {
		s.ratings = append(s.ratings, sub.Rating)
	}
	s.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

func (s *server) handleFeedbackStats(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := api.FeedbackStats{TotalSubmissions: len(s.ratings)}
	for _, r := range s.ratings {
		stats.AverageRating += float64(r)
		if r >= 4 {
			stats.PositiveCount++
		} else if r <= 2 {
			stats.NegativeCount++
		}
	}
	if len(s.ratings) > 0 {
		stats.AverageRating /= float64(len(s.ratings))
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *server) handleUpload(kind api.MediaKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := s.authenticate(c); err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
		}

		id := uuid.NewString()
		s.mu.Lock()
		s.jobs[id] = &mediaJob{
			job:  api.AnalysisJob{ID: id, Status: api.StatusProcessing},
			kind: kind,
		}
		s.mu.Unlock()

		s.logger.Info("media upload",
			zap.String("kind", string(kind)),
			zap.String("filename", fh.Filename),
			zap.Int64("size", fh.Size),
			zap.String("job", id))

		return c.JSON(http.StatusAccepted, api.UploadResponse{ID: id, Status: api.StatusProcessing})
	}
}

func (s *server) handleAnalysis(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown job")
	}

	if j.job.Status == api.StatusProcessing {
		j.polls++
		// mediaPolls of zero keeps jobs processing forever, which is the
		// setup for exercising the client's poll timeout.
		if s.mediaPolls > 0 && j.polls >= s.mediaPolls {
			j.job.Status = api.StatusCompleted
			text := "This is a stub transcription of the uploaded recording."
			if j.kind == api.MediaImage {
				text = "This is a stub description of the uploaded image."
			}
			j.job.Result = &api.AnalysisResult{Text: text, Confidence: 0.91}
		}
	}

	return c.JSON(http.StatusOK, j.job)
}

func (s *server) handleAdminMetrics(c echo.Context) error {
	if _, err := s.requireAdmin(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, api.Metrics{
		TotalUsers:          len(s.accounts),
		ActiveUsers:         len(s.tokens),
		TotalMessages:       s.messages,
		SystemHealth:        99.2,
		AIAccuracy:          94.5,
		AverageResponseTime: 120 + float64(s.messages%40),
	})
}

func (s *server) handleAdminUsers(c echo.Context) error {
	if _, err := s.requireAdmin(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.AdminUser, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, api.AdminUser{
			ID:       acct.user.ID,
			Email:    acct.user.Email,
			Name:     acct.user.Name,
			Role:     acct.user.Role,
			LastSeen: time.Now().Add(-13 * time.Minute),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) handleAdminRoles(c echo.Context) error {
	if _, err := s.requireAdmin(c); err != nil {
		return err
	}

	s.mu.Lock()
	users, admins := 0, 0
	for _, acct := range s.accounts {
		if acct.user.IsAdmin() {
			admins++
		} else {
			users++
		}
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, []api.RoleRecord{
		{Name: api.RoleUser, Permissions: []string{"chat", "media", "feedback"}, UserCount: users},
		{Name: api.RoleAdmin, Permissions: []string{"chat", "media", "feedback", "admin"}, UserCount: admins},
	})
}

func (s *server) handleAdminLogs(c echo.Context) error {
	if _, err := s.requireAdmin(c); err != nil {
		return err
	}

	now := time.Now()
	return c.JSON(http.StatusOK, []api.LogEntry{
		{Timestamp: now.Add(-4 * time.Minute), Level: "info", Message: "model warm-up complete", Source: "analyze"},
		{Timestamp: now.Add(-2 * time.Minute), Level: "warn", Message: "slow transcription job", Source: "media"},
		{Timestamp: now.Add(-30 * time.Second), Level: "info", Message: "feedback aggregation run", Source: "feedback"},
	})
}

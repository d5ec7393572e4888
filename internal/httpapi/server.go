package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsdash/internal/dashboard"
	"newsdash/internal/domain"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

type Dashboard interface {
	Refresh(ctx context.Context, category string) (domain.DashboardState, error)
	Snapshot() domain.DashboardState
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type RefreshAccepted struct {
	Status   string `json:"status"`
	Category string `json:"category"`
}

// Server exposes one dashboard over a JSON API. Background refreshes run on
// ctx, so cancelling it stops them; Wait blocks until they return.
type Server struct {
	ctx             context.Context
	dashboard       Dashboard
	defaultCategory string
	log             *slog.Logger

	wg sync.WaitGroup
}

func New(
	ctx context.Context,
	dashboard Dashboard,
	defaultCategory string,
	log *slog.Logger,
) *Server {
	return &Server{
		ctx:             ctx,
		dashboard:       dashboard,
		defaultCategory: domain.NormalizeCategory(defaultCategory),
		log:             log,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID, s.logRequest)

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	{
		api.GET("/health", s.health)
		api.GET("/categories", s.categories)
		api.GET("/dashboard", s.snapshot)
		api.POST("/dashboard/refresh", s.refresh)
	}

	return r
}

// Wait blocks until background refreshes have returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) requestID(c *gin.Context) {
	id := c.GetHeader(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	c.Set(requestIDKey, id)
	c.Header(RequestIDHeader, id)
	c.Next()
}

func (s *Server) logRequest(c *gin.Context) {
	start := time.Now()
	c.Next()

	s.log.InfoContext(c.Request.Context(), "Handled request",
		"requestID", c.GetString(requestIDKey),
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

func (s *Server) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": domain.Categories(),
		"default":    s.defaultCategory,
	})
}

func (s *Server) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.dashboard.Snapshot())
}

func (s *Server) refresh(c *gin.Context) {
	category := s.defaultCategory
	if raw := c.Query("category"); raw != "" {
		category = domain.NormalizeCategory(raw)
	}

	if !domain.IsCategory(category) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unknown_category",
			Message: "Unknown category: " + category,
		})
		return
	}

	wait := false
	if raw := c.Query("wait"); raw != "" {
		var err error
		if wait, err = strconv.ParseBool(raw); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_wait",
				Message: "wait must be true or false",
			})
			return
		}
	}

	if !wait {
		requestID := c.GetString(requestIDKey)
		s.wg.Go(func() {
			_, err := s.dashboard.Refresh(s.ctx, category)
			if errors.Is(err, dashboard.ErrSuperseded) {
				s.log.DebugContext(s.ctx, "Background refresh was superseded",
					"requestID", requestID,
					"category", category)
				return
			}
			if err != nil {
				s.log.WarnContext(s.ctx, "Background refresh did not complete",
					"error", err,
					"requestID", requestID,
					"category", category)
			}
		})

		c.JSON(http.StatusAccepted, RefreshAccepted{Status: "accepted", Category: category})
		return
	}

	state, err := s.dashboard.Refresh(c.Request.Context(), category)
	if errors.Is(err, dashboard.ErrSuperseded) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "superseded",
			Message: "A newer refresh replaced this one",
		})
		return
	}

	// Fetch failures are part of the dashboard state and carry their own
	// user-facing message.
	c.JSON(http.StatusOK, state)
}

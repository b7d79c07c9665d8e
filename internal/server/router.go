// Package server assembles the HTTP surface: middleware, the health probe and the /api routes.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/contacts"
	"github.com/eduverse/site-backend/internal/emaillogs"
	"github.com/eduverse/site-backend/internal/events"
	"github.com/eduverse/site-backend/internal/middleware"
	"github.com/eduverse/site-backend/internal/recordings"
	"github.com/eduverse/site-backend/internal/registrations"
	"github.com/eduverse/site-backend/internal/store"
	"github.com/eduverse/site-backend/internal/testimonials"
)

// Options tune the router.
type Options struct {
	CORSAllowedOrigins string
	// PrimeStore makes every /api request (health excluded) try to establish the store connection first.
	PrimeStore bool
}

// Handlers groups the endpoint handlers mounted under /api.
type Handlers struct {
	Events        *events.Handler
	Registrations *registrations.Handler
	Recordings    *recordings.Handler
	Contacts      *contacts.Handler
	Testimonials  *testimonials.Handler
	EmailLogs     *emaillogs.Handler
}

// HealthResponse is the body of GET /api/health. It is not wrapped in the response envelope.
type HealthResponse struct {
	Status    string       `json:"status"`
	Database  store.Status `json:"database"`
	Driver    string       `json:"driver,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Health reports liveness and the store state without touching the connection.
func Health(adapter *store.Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "ok",
			Database:  adapter.Status(),
			Driver:    adapter.Driver(),
			Timestamp: time.Now().UTC(),
		})
	}
}

// NewRouter builds the gin engine.
func NewRouter(opts Options, adapter *store.Adapter, h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(opts.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health stays outside the priming group so probes never dial the store.
	router.GET("/api/health", Health(adapter))

	api := router.Group("/api")
	if opts.PrimeStore {
		api.Use(middleware.EnsureStore(adapter))
	}
	{
		// Events
		api.POST("/events", h.Events.Create)
		api.GET("/events", h.Events.List)
		api.GET("/events/:id", h.Events.Get)

		// Registrations
		api.POST("/registrations", h.Registrations.Create)
		api.GET("/registrations", h.Registrations.List)
		api.GET("/registrations/:id", h.Registrations.Get)

		// Recording bookings (multipart)
		api.POST("/recordings", h.Recordings.Create)
		api.GET("/recordings", h.Recordings.List)

		// Contact
		api.POST("/contact", h.Contacts.Create)
		api.GET("/contact", h.Contacts.List)

		// Testimonials
		api.GET("/testimonials", h.Testimonials.List)
		api.POST("/testimonials", h.Testimonials.Create)

		// Email delivery log
		api.GET("/email-logs", h.EmailLogs.List)
	}

	return router
}

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/fallback"
	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/store"
	"github.com/eduverse/site-backend/pkg/response"
	"github.com/eduverse/site-backend/pkg/validate"
)

// DefaultReadTimeout bounds the store read behind the public listing.
const DefaultReadTimeout = 5 * time.Second

// CreateRequest is the body for POST /events. Pointer fields distinguish "absent" from zero for defaults.
type CreateRequest struct {
	Title              string           `json:"title" validate:"required"`
	Date               string           `json:"date" validate:"required"`
	Type               string           `json:"type" validate:"required"`
	Description        string           `json:"description" validate:"required"`
	Poster             string           `json:"poster"`
	Price              *int             `json:"price"`
	RecordingAvailable *bool            `json:"recordingAvailable"`
	IsVisible          *bool            `json:"isVisible"`
	RegistrationURL    string           `json:"registrationUrl"`
	WhatsappGroupURL   string           `json:"whatsappGroupUrl"`
	Highlights         []string         `json:"highlights"`
	Speaker            *models.Speaker  `json:"speaker"`
	Speakers           []models.Speaker `json:"speakers"`
}

// Meta tells the client where a listing came from.
type Meta struct {
	Source          string          `json:"source"`
	Reason          fallback.Reason `json:"reason"`
	SnapshotVersion string          `json:"snapshotVersion,omitempty"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo        *Repository
	readTimeout time.Duration
	logger      *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, readTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Handler{repo: repo, readTimeout: readTimeout, logger: logger}
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if missing := validate.Missing(req); len(missing) > 0 {
		response.ValidationError(c, validate.Message(missing), missing)
		return
	}
	if !models.IsValidEventType(req.Type) {
		response.ValidationError(c, "type must be Past or Upcoming", []string{"type"})
		return
	}
	if !h.repo.Ready() {
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}

	e := &models.Event{
		ID:                 models.NewID(),
		Title:              strings.TrimSpace(req.Title),
		Date:               req.Date,
		Type:               req.Type,
		Description:        req.Description,
		Poster:             req.Poster,
		RecordingAvailable: true,
		IsVisible:          true,
		RegistrationURL:    req.RegistrationURL,
		WhatsappGroupURL:   req.WhatsappGroupURL,
		Highlights:         req.Highlights,
		Speaker:            req.Speaker,
		Speakers:           req.Speakers,
		CreatedAt:          time.Now().UTC(),
	}
	if req.Price != nil {
		e.Price = *req.Price
	}
	if req.RecordingAvailable != nil {
		e.RecordingAvailable = *req.RecordingAvailable
	}
	if req.IsVisible != nil {
		e.IsVisible = *req.IsVisible
	}

	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e.View())
}

// List handles GET /events. The store is tried first within the read timeout; any failure or an empty
// result serves the embedded snapshot instead.
func (h *Handler) List(c *gin.Context) {
	eventType := c.Query("type")
	chain := fallback.NewChain(
		h.storeProvider(eventType),
		fallback.EventsProvider(func(e models.Event) bool {
			return e.IsVisible && (eventType == "" || e.Type == eventType)
		}),
	)
	res := chain.Run(c.Request.Context())
	if res.Fallback() {
		h.logger.Info("serving fallback events", zap.String("reason", string(res.Reason)), zap.String("source", res.Source))
	}

	views := make([]models.EventView, 0, len(res.Data))
	for i := range res.Data {
		views = append(views, res.Data[i].View())
	}
	meta := Meta{Source: res.Source, Reason: res.Reason}
	if res.Source == fallback.SourceSnapshot {
		meta.SnapshotVersion = fallback.Version()
	}
	response.OKWithMeta(c, views, meta)
}

func (h *Handler) storeProvider(eventType string) fallback.Provider[models.Event] {
	return fallback.Provider[models.Event]{
		Name: fallback.SourceStore,
		Fetch: func(ctx context.Context) ([]models.Event, error) {
			if !h.repo.Configured() {
				return nil, fallback.ErrNotConfigured
			}
			ctx, cancel := context.WithTimeout(ctx, h.readTimeout)
			defer cancel()
			list, err := h.repo.ListVisible(ctx, eventType)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return list, err
		},
	}
}

// Get handles GET /events/:id. Ids that are not store ids, or are missing from the store, are looked up in
// the snapshot.
func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if models.IsValidID(id) && h.repo.Ready() {
		e, err := h.repo.GetByID(c.Request.Context(), id)
		if err == nil {
			response.OKWithMeta(c, e.View(), Meta{Source: fallback.SourceStore, Reason: fallback.ReasonNone})
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("get event failed, trying snapshot", zap.String("event_id", id), zap.Error(err))
		}
	}
	if e, ok := fallback.FindEvent(id); ok {
		response.OKWithMeta(c, e.View(), Meta{Source: fallback.SourceSnapshot, SnapshotVersion: fallback.Version(), Reason: h.snapshotReason()})
		return
	}
	response.NotFound(c, "Event not found")
}

func (h *Handler) snapshotReason() fallback.Reason {
	switch {
	case !h.repo.Configured():
		return fallback.ReasonStoreNotConfigured
	case !h.repo.Ready():
		return fallback.ReasonStoreUnavailable
	default:
		return fallback.ReasonStoreEmpty
	}
}

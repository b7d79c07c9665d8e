package testimonials

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/fallback"
	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/pkg/response"
	"github.com/eduverse/site-backend/pkg/validate"
)

// CreateRequest is the body for POST /testimonials.
type CreateRequest struct {
	Name  string `json:"name" validate:"required"`
	Role  string `json:"role"`
	Quote string `json:"quote" validate:"required"`
}

// Meta describes a degraded response.
type Meta struct {
	Persisted *bool           `json:"persisted,omitempty"`
	Reason    fallback.Reason `json:"reason,omitempty"`
}

// Handler handles testimonial HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a testimonials handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /testimonials. A store failure is logged and still answered with 201.
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

	t := &models.Testimonial{
		ID:        models.NewID(),
		Name:      strings.TrimSpace(req.Name),
		Role:      strings.TrimSpace(req.Role),
		Quote:     req.Quote,
		CreatedAt: time.Now().UTC(),
	}
	persisted := true
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		persisted = false
		h.logger.Error("save testimonial failed", zap.Error(err))
	}
	response.CreatedWithMessage(c, t, "Thank you for sharing your experience.", Meta{Persisted: &persisted})
}

// List handles GET /testimonials. Without a working store the list is empty, never an error.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		reason := fallback.Classify(err)
		if !h.repo.Configured() {
			reason = fallback.ReasonStoreNotConfigured
		}
		h.logger.Warn("serving empty testimonials", zap.String("reason", string(reason)), zap.Error(err))
		response.OKWithMeta(c, []models.Testimonial{}, Meta{Reason: reason})
		return
	}
	if list == nil {
		list = []models.Testimonial{}
	}
	response.OK(c, list)
}

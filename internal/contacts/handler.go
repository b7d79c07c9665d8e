package contacts

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/notify"
	"github.com/eduverse/site-backend/pkg/response"
	"github.com/eduverse/site-backend/pkg/validate"
)

// ConfirmationMessage is returned with every accepted contact message.
const ConfirmationMessage = "Thank you for contacting us. We will get back to you soon."

// CreateRequest is the body for POST /contact.
type CreateRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

// Notifier sends the contact emails.
type Notifier interface {
	Contact(c *models.Contact) notify.Result
}

// Meta says whether the message reached the store.
type Meta struct {
	Persisted bool `json:"persisted"`
}

// Handler handles contact form HTTP endpoints.
type Handler struct {
	repo     *Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a contacts handler.
func NewHandler(repo *Repository, notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

// Create handles POST /contact. A store failure is logged and the visitor still gets a confirmation; the
// emails carry the message either way.
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

	m := &models.Contact{
		ID:        models.NewID(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}

	persisted := true
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		persisted = false
		h.logger.Error("save contact failed", zap.String("email", m.Email), zap.Error(err))
	}

	h.notifier.Contact(m)
	response.CreatedWithMessage(c, m, ConfirmationMessage, Meta{Persisted: persisted})
}

// List handles GET /contact.
func (h *Handler) List(c *gin.Context) {
	if !h.repo.Ready() {
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list contacts failed", zap.Error(err))
		response.Internal(c, "failed to load contacts")
		return
	}
	response.OK(c, list)
}

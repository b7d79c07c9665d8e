package registrations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/notify"
	"github.com/eduverse/site-backend/internal/store"
	"github.com/eduverse/site-backend/internal/tasks"
	"github.com/eduverse/site-backend/pkg/response"
	"github.com/eduverse/site-backend/pkg/validate"
)

// CreateRequest is the body for POST /registrations.
type CreateRequest struct {
	EventID                string  `json:"eventId" validate:"required"`
	FullName               string  `json:"fullName" validate:"required"`
	Email                  string  `json:"email" validate:"required"`
	Phone                  string  `json:"phone" validate:"required"`
	SchoolCollegeWorkplace string  `json:"schoolCollegeWorkplace" validate:"required"`
	YearOfStudy            *string `json:"yearOfStudy"`
	HeardAboutFrom         string  `json:"heardAboutFrom" validate:"required"`
	RegistrationType       string  `json:"registrationType" validate:"required"`
	TransactionID          *string `json:"transactionId"`
}

// EventLookup resolves the event a registration points at.
type EventLookup interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

// Notifier sends the registration emails.
type Notifier interface {
	Registration(r *models.Registration) notify.Result
}

// FormSync mirrors a registration to the external form.
type FormSync interface {
	Configured() bool
	Submit(ctx context.Context, r *models.Registration) error
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	repo     *Repository
	events   EventLookup
	notifier Notifier
	forms    FormSync
	runner   *tasks.Runner
	logger   *zap.Logger
}

// NewHandler creates a registrations handler. forms may be nil.
func NewHandler(repo *Repository, events EventLookup, notifier Notifier, forms FormSync, runner *tasks.Runner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, events: events, notifier: notifier, forms: forms, runner: runner, logger: logger}
}

func optional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Create handles POST /registrations. There is no degraded path: without the store the request fails.
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
	if !models.IsValidID(req.EventID) {
		response.BadRequest(c, "Invalid event id")
		return
	}
	if !h.repo.Ready() {
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}

	ctx := c.Request.Context()
	event, err := h.events.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "Event not found")
			return
		}
		h.logger.Error("lookup event failed", zap.String("event_id", req.EventID), zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	reg := &models.Registration{
		ID:                     models.NewID(),
		EventID:                event.ID,
		EventTitle:             event.Title,
		FullName:               strings.TrimSpace(req.FullName),
		Email:                  strings.TrimSpace(req.Email),
		Phone:                  strings.TrimSpace(req.Phone),
		SchoolCollegeWorkplace: req.SchoolCollegeWorkplace,
		YearOfStudy:            optional(req.YearOfStudy),
		HeardAboutFrom:         req.HeardAboutFrom,
		RegistrationType:       req.RegistrationType,
		TransactionID:          optional(req.TransactionID),
		CreatedAt:              time.Now().UTC(),
	}
	if err := h.repo.Create(ctx, reg); err != nil {
		h.logger.Error("create registration failed", zap.String("event_id", event.ID), zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	h.notifier.Registration(reg)
	h.syncForm(reg)

	summary := event.Summary()
	response.CreatedWithMessage(c, models.RegistrationView{Registration: *reg, Event: &summary}, "Registration successful", nil)
}

// syncForm submits to the Google Form and then flags the registration. The two steps are not atomic; a
// failure in between leaves the flag unset.
func (h *Handler) syncForm(reg *models.Registration) {
	if h.forms == nil || !h.forms.Configured() {
		return
	}
	snapshot := *reg
	h.runner.Go("google-form", func(ctx context.Context) error {
		if err := h.forms.Submit(ctx, &snapshot); err != nil {
			return err
		}
		return h.repo.MarkSubmittedToGoogleForm(ctx, snapshot.ID, time.Now())
	})
}

// List handles GET /registrations?eventId=.
func (h *Handler) List(c *gin.Context) {
	if !h.repo.Ready() {
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}
	ctx := c.Request.Context()
	list, err := h.repo.List(ctx, c.Query("eventId"))
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to load registrations")
		return
	}

	cache := make(map[string]*models.EventSummary)
	views := make([]models.RegistrationView, 0, len(list))
	for _, reg := range list {
		views = append(views, models.RegistrationView{Registration: reg, Event: h.summary(ctx, reg.EventID, cache)})
	}
	response.OK(c, views)
}

// Get handles GET /registrations/:id.
func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		response.BadRequest(c, "Invalid registration id")
		return
	}
	if !h.repo.Ready() {
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}
	ctx := c.Request.Context()
	reg, err := h.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "Registration not found")
			return
		}
		h.logger.Error("get registration failed", zap.String("registration_id", id), zap.Error(err))
		response.Internal(c, "failed to load registration")
		return
	}
	response.OK(c, models.RegistrationView{Registration: *reg, Event: h.summary(ctx, reg.EventID, nil)})
}

// summary fetches the current title/date/type of an event. Missing events yield nil.
func (h *Handler) summary(ctx context.Context, eventID string, cache map[string]*models.EventSummary) *models.EventSummary {
	if s, ok := cache[eventID]; ok {
		return s
	}
	var out *models.EventSummary
	if e, err := h.events.GetByID(ctx, eventID); err == nil {
		s := e.Summary()
		out = &s
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logger.Warn("lookup event for registration failed", zap.String("event_id", eventID), zap.Error(err))
	}
	if cache != nil {
		cache[eventID] = out
	}
	return out
}

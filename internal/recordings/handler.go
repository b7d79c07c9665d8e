package recordings

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/fallback"
	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/notify"
	"github.com/eduverse/site-backend/internal/uploads"
	"github.com/eduverse/site-backend/pkg/response"
	"github.com/eduverse/site-backend/pkg/validate"
)

// FileField is the multipart field carrying the payment screenshot.
const FileField = "paymentScreenshot"

// Where a booking was persisted.
const (
	SourceStore  = "store"
	SourceBackup = "backup"
)

// UnlistedEventTitle is used when a booking names an event found in neither the store nor the snapshot.
const UnlistedEventTitle = "Unlisted event"

// CreateRequest is the multipart body for POST /recordings. PaymentScreenshot is filled from the uploaded
// file so a missing file is reported like any other missing field.
type CreateRequest struct {
	Name              string `form:"name" json:"name" validate:"required"`
	Email             string `form:"email" json:"email" validate:"required"`
	Whatsapp          string `form:"whatsapp" json:"whatsapp" validate:"required"`
	Institution       string `form:"institution" json:"institution" validate:"required"`
	Location          string `form:"location" json:"location" validate:"required"`
	YearOrRole        string `form:"yearOrRole" json:"yearOrRole" validate:"required"`
	HeardFrom         string `form:"heardFrom" json:"heardFrom" validate:"required"`
	EventID           string `form:"eventId" json:"eventId" validate:"required"`
	PaymentScreenshot string `form:"-" json:"paymentScreenshot" validate:"required"`
}

// EventLookup resolves store events.
type EventLookup interface {
	Ready() bool
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

// ProofStore saves the uploaded payment screenshot.
type ProofStore interface {
	SavePaymentProof(ctx context.Context, eventID string, fh *multipart.FileHeader) (uploads.Saved, error)
}

// Backup is the last resort for bookings the store could not take.
type Backup interface {
	Append(rec *models.RecordingRequest) error
}

// Notifier sends the booking emails.
type Notifier interface {
	Booking(r *models.RecordingRequest) notify.Result
}

// Meta reports where the booking was written.
type Meta struct {
	Source string `json:"source"`
}

// Handler handles recording booking HTTP endpoints.
type Handler struct {
	repo     *Repository
	events   EventLookup
	proofs   ProofStore
	backup   Backup
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a recording bookings handler.
func NewHandler(repo *Repository, events EventLookup, proofs ProofStore, backup Backup, notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, events: events, proofs: proofs, backup: backup, notifier: notifier, logger: logger}
}

// Create handles POST /recordings. A store outage or insert failure diverts the booking to the backup file;
// only a failed backup write fails the request. Recording availability is not enforced here.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	fh, err := c.FormFile(FileField)
	if err == nil {
		req.PaymentScreenshot = fh.Filename
	}
	if missing := validate.Missing(req); len(missing) > 0 {
		response.ValidationError(c, validate.Message(missing), missing)
		return
	}

	ctx := c.Request.Context()
	event := h.resolveEvent(ctx, strings.TrimSpace(req.EventID))

	saved, err := h.proofs.SavePaymentProof(ctx, event.ID, fh)
	if err != nil {
		if errors.Is(err, uploads.ErrTooLarge) {
			response.BadRequest(c, "Payment screenshot is too large")
			return
		}
		h.logger.Warn("payment screenshot unreadable", zap.Error(err))
		response.BadRequest(c, "Could not read payment screenshot")
		return
	}

	now := time.Now().UTC()
	rec := &models.RecordingRequest{
		ID:                      models.NewID(),
		Name:                    req.Name,
		Email:                   req.Email,
		Whatsapp:                req.Whatsapp,
		Institution:             req.Institution,
		Location:                req.Location,
		YearOrRole:              req.YearOrRole,
		HeardFrom:               req.HeardFrom,
		EventID:                 event.ID,
		EventTitle:              event.Title,
		PaymentScreenshot:       saved.Filename,
		PaymentScreenshotPath:   saved.Path,
		PaymentScreenshotBase64: saved.Base64,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	source, err := h.persist(ctx, rec)
	if err != nil {
		h.logger.Error("booking lost: store and backup both failed", zap.String("email", rec.Email), zap.Error(err))
		response.Internal(c, "failed to save recording request")
		return
	}

	h.notifier.Booking(rec)

	out := *rec
	out.PaymentScreenshotBase64 = ""
	response.CreatedWithMessage(c, out, "Recording request submitted", Meta{Source: source})
}

func (h *Handler) persist(ctx context.Context, rec *models.RecordingRequest) (string, error) {
	if h.repo.Ready() {
		err := h.repo.Create(ctx, rec)
		if err == nil {
			return SourceStore, nil
		}
		h.logger.Warn("store insert failed, writing booking to backup", zap.String("booking_id", rec.ID), zap.Error(err))
	} else {
		h.logger.Warn("store unavailable, writing booking to backup", zap.String("booking_id", rec.ID))
	}
	if err := h.backup.Append(rec); err != nil {
		return "", err
	}
	return SourceBackup, nil
}

// resolveEvent finds the booked event in the store, then the snapshot, else returns a placeholder carrying
// the submitted id.
func (h *Handler) resolveEvent(ctx context.Context, id string) models.EventSummary {
	if models.IsValidID(id) && h.events.Ready() {
		e, err := h.events.GetByID(ctx, id)
		if err == nil {
			return e.Summary()
		}
		h.logger.Debug("booked event not in store", zap.String("event_id", id), zap.Error(err))
	}
	if e, ok := fallback.FindEvent(id); ok {
		return e.Summary()
	}
	return models.EventSummary{ID: id, Title: UnlistedEventTitle}
}

// List handles GET /recordings.
func (h *Handler) List(c *gin.Context) {
	if !h.repo.Ready() {
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list recording requests failed", zap.Error(err))
		response.Internal(c, "failed to load recording requests")
		return
	}
	response.OK(c, list)
}

package emaillogs

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /email-logs?flow=&limit=.
func (h *Handler) List(c *gin.Context) {
	if !h.repo.Ready() {
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	logs, err := h.repo.List(c.Request.Context(), c.Query("flow"), limit)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/services/fallback"
)

// SystemHandler exposes health and the explicit reconciliation trigger.
type SystemHandler struct {
	fb     *fallback.Cache // nil when the fallback mirror is disabled
	errs   *apperrors.ErrorHandler
	logger logger.Logger
}

func NewSystemHandler(fb *fallback.Cache, errs *apperrors.ErrorHandler, log logger.Logger) *SystemHandler {
	return &SystemHandler{
		fb:     fb,
		errs:   errs,
		logger: log.WithFields(map[string]interface{}{"handler": "system"}),
	}
}

// Health handles GET /health. Degraded means absorbed writes are
// waiting for a reconcile, not that the service is down.
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	degraded := h.fb != nil && h.fb.Degraded(c.UserContext())
	return c.JSON(HealthResponse{Status: "ok", Degraded: degraded})
}

// Reconcile handles POST /reconcile. Replay never happens implicitly;
// this endpoint is the only way absorbed writes reach the remote store.
func (h *SystemHandler) Reconcile(c *fiber.Ctx) error {
	if h.fb == nil {
		return c.JSON(ReconcileResponse{
			Success: true,
			Report:  &fallback.ReconcileReport{Replayed: []string{}, Failed: []string{}},
		})
	}

	report, err := h.fb.Reconcile(c.UserContext())
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(ReconcileResponse{Success: true, Report: report})
}

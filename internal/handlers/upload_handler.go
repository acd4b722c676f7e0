package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/services/uploads"
)

// UploadHandler exposes the file-attachment endpoints backed by the
// upload broker.
type UploadHandler struct {
	broker *uploads.Broker
	errs   *apperrors.ErrorHandler
	logger logger.Logger
}

func NewUploadHandler(broker *uploads.Broker, errs *apperrors.ErrorHandler, log logger.Logger) *UploadHandler {
	return &UploadHandler{
		broker: broker,
		errs:   errs,
		logger: log.WithFields(map[string]interface{}{"handler": "uploads"}),
	}
}

// IssueCredential handles POST /presigned-url.
func (h *UploadHandler) IssueCredential(c *fiber.Ctx) error {
	var req uploads.CredentialRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errs.Respond(c, apperrors.NewValidationError("request body is not valid JSON"))
	}

	cred, err := h.broker.IssueCredential(c.UserContext(), req)
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(cred)
}

// RegisterFile handles POST /file-registry.
func (h *UploadHandler) RegisterFile(c *fiber.Ctx) error {
	var record registerFileRequest
	if err := c.BodyParser(&record); err != nil {
		return h.errs.Respond(c, apperrors.NewValidationError("request body is not valid JSON"))
	}

	degraded, err := h.broker.RegisterUpload(c.UserContext(), record.toRecord())
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(RegisterFileResponse{Success: true, EntryID: record.EntryID, Degraded: degraded})
}

// ListFiles handles GET /file-registry?orgId=&employeeId=.
func (h *UploadHandler) ListFiles(c *fiber.Ctx) error {
	orgID := c.Query("orgId")

	var employeeID *int
	if raw := c.Query("employeeId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			return h.errs.Respond(c, apperrors.NewValidationError("employeeId must be a non-negative integer"))
		}
		employeeID = &id
	}

	records, err := h.broker.ListFiles(c.UserContext(), orgID, employeeID)
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(FileListResponse{Files: records})
}

// DeleteFile handles DELETE /file/:entryId with the storage key in the
// body.
func (h *UploadHandler) DeleteFile(c *fiber.Ctx) error {
	var req DeleteFileRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errs.Respond(c, apperrors.NewValidationError("request body is not valid JSON"))
	}

	if err := h.broker.DeleteFile(c.UserContext(), c.Params("entryId"), req.StorageKey); err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(DeleteFileResponse{Success: true, Message: "file deleted"})
}

// UploadDirect handles POST /upload-file, the server-side upload path
// for clients whose presigned transfer was rejected.
func (h *UploadHandler) UploadDirect(c *fiber.Ctx) error {
	var req uploads.DirectUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errs.Respond(c, apperrors.NewValidationError("request body is not valid JSON"))
	}

	record, degraded, err := h.broker.UploadDirect(c.UserContext(), req)
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(DirectUploadResponse{Success: true, File: record, Degraded: degraded})
}

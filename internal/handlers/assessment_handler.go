package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/services/assessment"
	"assessment-backend/internal/services/session"
)

// AssessmentHandler exposes the questionnaire endpoints. Identity
// resolution goes through the session manager so new-employee saves and
// resumed saves share one code path.
type AssessmentHandler struct {
	store    *assessment.Store
	sessions *session.Manager
	errs     *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewAssessmentHandler(store *assessment.Store, sessions *session.Manager, errs *apperrors.ErrorHandler, log logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		store:    store,
		sessions: sessions,
		errs:     errs,
		logger:   log.WithFields(map[string]interface{}{"handler": "assessment"}),
	}
}

// CompanyStatus handles GET /company-status/:orgId. A never-saved
// organization is a regular not-started response, not a 404.
func (h *AssessmentHandler) CompanyStatus(c *fiber.Ctx) error {
	status, err := h.store.Status(c.UserContext(), c.Params("orgId"))
	if err != nil {
		return h.errs.Respond(c, err)
	}

	resp := CompanyStatusResponse{
		Status:               status.Status,
		CompletionPercentage: status.CompletionPercentage,
		LastModified:         status.LastModified,
		EmployeeCount:        status.EmployeeCount,
		NextEmployeeID:       status.NextEmployeeID,
	}
	if status.Document != nil {
		resp.FormData = status.Document.Responses
	}

	return c.JSON(resp)
}

// EmployeeList handles GET /employee-list/:orgId.
func (h *AssessmentHandler) EmployeeList(c *fiber.Ctx) error {
	employees, err := h.store.EmployeeList(c.UserContext(), c.Params("orgId"))
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(EmployeeListResponse{Employees: employees})
}

// EmployeeData handles GET /employee-data/:orgId/:employeeId. A missing
// document answers found=false with a 200; the employee id simply has
// no saved responses yet.
func (h *AssessmentHandler) EmployeeData(c *fiber.Ctx) error {
	employeeID, err := strconv.Atoi(c.Params("employeeId"))
	if err != nil || employeeID < 0 {
		return h.errs.Respond(c, apperrors.NewValidationError("employeeId must be a non-negative integer"))
	}

	doc, err := h.store.Document(c.UserContext(), c.Params("orgId"), &employeeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.JSON(EmployeeDataResponse{Found: false})
		}
		return h.errs.Respond(c, err)
	}

	return c.JSON(EmployeeDataResponse{
		Found:                true,
		FormData:             doc.Responses,
		State:                doc.State,
		CompletionPercentage: doc.CompletionPercentage,
	})
}

// SaveCompany handles POST /save-company.
func (h *AssessmentHandler) SaveCompany(c *fiber.Ctx) error {
	var req SaveCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errs.Respond(c, apperrors.NewValidationError("request body is not valid JSON"))
	}

	sess, err := h.sessions.Organization(req.OrgID)
	if err != nil {
		return h.errs.Respond(c, err)
	}
	_, result, err := h.sessions.Save(c.UserContext(), sess, req.Responses, req.IsExplicitSubmit)
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(SaveResponse{
		State:                result.State,
		CompletionPercentage: result.CompletionPercentage,
		Degraded:             result.Degraded,
	})
}

// SaveEmployee handles POST /save-employee. Without an employeeId in
// the body this is the first save of a new-employee session and the
// identifier is allocated here; the response always carries the id the
// document landed under.
func (h *AssessmentHandler) SaveEmployee(c *fiber.Ctx) error {
	var req SaveEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errs.Respond(c, apperrors.NewValidationError("request body is not valid JSON"))
	}

	var sess session.Session
	var err error
	switch {
	case req.EmployeeID != nil:
		// an allocated identifier always wins over the new-employee hint
		sess, err = h.sessions.Resume(c.UserContext(), req.OrgID, *req.EmployeeID)
	case req.IsNewEmployee:
		sess, err = h.sessions.BeginNewEmployee(req.OrgID)
	default:
		err = apperrors.NewValidationError("employeeId is required unless isNewEmployee is set")
	}
	if err != nil {
		return h.errs.Respond(c, err)
	}

	sess, result, err := h.sessions.Save(c.UserContext(), sess, req.Responses, req.IsExplicitSubmit)
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(SaveResponse{
		State:                result.State,
		CompletionPercentage: result.CompletionPercentage,
		EmployeeID:           sess.EmployeeID,
		Degraded:             result.Degraded,
	})
}

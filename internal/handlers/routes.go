package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"assessment-backend/internal/common/observability"
)

// Set bundles the handlers the API server mounts.
type Set struct {
	Assessment *AssessmentHandler
	Uploads    *UploadHandler
	System     *SystemHandler
}

// Register mounts every route on the app. When obs is non-nil a
// middleware records per-route request counts and latencies.
func Register(app *fiber.App, set Set, obs *observability.Observability) {
	if obs != nil {
		app.Use(func(c *fiber.Ctx) error {
			start := time.Now()
			err := c.Next()

			route := c.Route().Path
			status := "ok"
			if c.Response().StatusCode() >= fiber.StatusBadRequest {
				status = "error"
			}
			obs.RecordRequest(c.UserContext(), route, status)
			obs.RecordRequestDuration(c.UserContext(), time.Since(start), route)
			return err
		})
	}

	app.Get("/health", set.System.Health)
	app.Post("/reconcile", set.System.Reconcile)

	app.Post("/presigned-url", set.Uploads.IssueCredential)
	app.Post("/file-registry", set.Uploads.RegisterFile)
	app.Get("/file-registry", set.Uploads.ListFiles)
	app.Delete("/file/:entryId", set.Uploads.DeleteFile)
	app.Post("/upload-file", set.Uploads.UploadDirect)

	app.Get("/company-status/:orgId", set.Assessment.CompanyStatus)
	app.Get("/employee-list/:orgId", set.Assessment.EmployeeList)
	app.Get("/employee-data/:orgId/:employeeId", set.Assessment.EmployeeData)
	app.Post("/save-company", set.Assessment.SaveCompany)
	app.Post("/save-employee", set.Assessment.SaveEmployee)
}

package models

import "time"

// Form types distinguishing the organization questionnaire from the
// per-employee questionnaires.
const (
	FormTypeOrganization = "organization"
	FormTypeEmployee     = "employee"
)

// Document lifecycle states. A completed document remains editable;
// completed is sticky once reached through an explicit submit.
const (
	StateNew        = "new"
	StateInProgress = "in_progress"
	StateCompleted  = "completed"
)

// Status values reported for an organization that may not have a
// document yet.
const (
	StatusNotStarted = "not-started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// AssessmentDocument is the persisted questionnaire response document.
// One exists per organization, plus one per (organization, employee) pair.
// Writes always overwrite the document wholesale; deltas are merged in
// memory before the write.
type AssessmentDocument struct {
	OrganizationID       string                 `json:"organizationId"`
	EmployeeID           *int                   `json:"employeeId,omitempty"`
	FormType             string                 `json:"formType"`
	Responses            map[string]interface{} `json:"responses"`
	State                string                 `json:"state"`
	CompletionPercentage int                    `json:"completionPercentage"`
	CanModify            bool                   `json:"canModify"`
	CreatedAt            time.Time              `json:"createdAt"`
	LastModified         time.Time              `json:"lastModified"`
}

// SaveResult is the outcome of a save operation.
type SaveResult struct {
	State                string `json:"state"`
	CompletionPercentage int    `json:"completionPercentage"`
	EmployeeID           *int   `json:"employeeId,omitempty"`
	// Degraded is set when the write was absorbed by the fallback cache
	// instead of reaching the remote store.
	Degraded bool `json:"degraded,omitempty"`
}

// StatusResult describes an organization's overall progress.
type StatusResult struct {
	Status               string              `json:"status"`
	Document             *AssessmentDocument `json:"formData,omitempty"`
	CompletionPercentage int                 `json:"completionPercentage"`
	LastModified         *time.Time          `json:"lastModified,omitempty"`
	EmployeeCount        int                 `json:"employeeCount"`
	EmployeeIDs          []int               `json:"employeeIds"`
	NextEmployeeID       int                 `json:"nextEmployeeId"`
}

// EmployeeSummary is one row of the employee list for an organization.
type EmployeeSummary struct {
	EmployeeID  int       `json:"employeeId"`
	DisplayName string    `json:"displayName,omitempty"`
	Completed   bool      `json:"completed"`
	LastSaved   time.Time `json:"lastSaved"`
}

package handlers

import (
	"time"

	"assessment-backend/internal/models"
	"assessment-backend/internal/services/fallback"
)

// ==========================
// Assessment payloads
// ==========================

type SaveCompanyRequest struct {
	OrgID            string                 `json:"orgId"`
	Responses        map[string]interface{} `json:"responses"`
	IsExplicitSubmit bool                   `json:"isExplicitSubmit"`
}

type SaveEmployeeRequest struct {
	OrgID            string                 `json:"orgId"`
	EmployeeID       *int                   `json:"employeeId,omitempty"`
	IsNewEmployee    bool                   `json:"isNewEmployee"`
	Responses        map[string]interface{} `json:"responses"`
	IsExplicitSubmit bool                   `json:"isExplicitSubmit"`
}

type SaveResponse struct {
	State                string `json:"state"`
	CompletionPercentage int    `json:"completionPercentage"`
	EmployeeID           *int   `json:"employeeId,omitempty"`
	Degraded             bool   `json:"degraded,omitempty"`
}

type CompanyStatusResponse struct {
	Status               string                 `json:"status"`
	FormData             map[string]interface{} `json:"formData,omitempty"`
	CompletionPercentage int                    `json:"completionPercentage"`
	LastModified         *time.Time             `json:"lastModified,omitempty"`
	EmployeeCount        int                    `json:"employeeCount"`
	NextEmployeeID       int                    `json:"nextEmployeeId"`
}

type EmployeeListResponse struct {
	Employees []models.EmployeeSummary `json:"employees"`
}

type EmployeeDataResponse struct {
	Found                bool                   `json:"found"`
	FormData             map[string]interface{} `json:"formData,omitempty"`
	State                string                 `json:"state,omitempty"`
	CompletionPercentage int                    `json:"completionPercentage,omitempty"`
}

// ==========================
// Upload payloads
// ==========================

// registerFileRequest is the wire shape of POST /file-registry; it is
// flattened relative to the stored record (orgId vs organizationId).
type registerFileRequest struct {
	EntryID      string `json:"entryId"`
	OrgID        string `json:"orgId"`
	EmployeeID   *int   `json:"employeeId,omitempty"`
	QuestionID   string `json:"questionId"`
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	FileType     string `json:"fileType"`
	StorageKey   string `json:"storageKey"`
	DownloadURL  string `json:"downloadUrl"`
	FormType     string `json:"formType"`
	QuestionText string `json:"questionText"`
}

func (r registerFileRequest) toRecord() models.FileUploadRecord {
	return models.FileUploadRecord{
		EntryID:        r.EntryID,
		OrganizationID: r.OrgID,
		EmployeeID:     r.EmployeeID,
		QuestionID:     r.QuestionID,
		FileName:       r.FileName,
		FileSize:       r.FileSize,
		FileType:       r.FileType,
		StorageKey:     r.StorageKey,
		DownloadURL:    r.DownloadURL,
		FormType:       r.FormType,
		QuestionText:   r.QuestionText,
	}
}

type RegisterFileResponse struct {
	Success  bool   `json:"success"`
	EntryID  string `json:"entryId"`
	Degraded bool   `json:"degraded,omitempty"`
}

type FileListResponse struct {
	Files []models.FileUploadRecord `json:"files"`
}

type DeleteFileRequest struct {
	StorageKey string `json:"storageKey"`
}

type DeleteFileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DirectUploadResponse struct {
	Success  bool                     `json:"success"`
	File     *models.FileUploadRecord `json:"file,omitempty"`
	Degraded bool                     `json:"degraded,omitempty"`
}

// ==========================
// System payloads
// ==========================

type HealthResponse struct {
	Status   string `json:"status"`
	Degraded bool   `json:"degraded"`
}

type ReconcileResponse struct {
	Success bool                      `json:"success"`
	Report  *fallback.ReconcileReport `json:"report"`
}

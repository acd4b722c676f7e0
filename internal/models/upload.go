package models

import "time"

// FileUploadRecord is one entry in the upload metadata registry. The
// registry is additive: re-uploading the same question produces a fresh
// entry id, never an overwrite of an existing record.
type FileUploadRecord struct {
	EntryID        string    `json:"entryId"`
	OrganizationID string    `json:"organizationId"`
	EmployeeID     *int      `json:"employeeId,omitempty"`
	QuestionID     string    `json:"questionId"`
	FileName       string    `json:"fileName"`
	FileSize       int64     `json:"fileSize"`
	FileType       string    `json:"fileType"`
	StorageKey     string    `json:"storageKey"`
	DownloadURL    string    `json:"downloadUrl,omitempty"`
	FormType       string    `json:"formType"`
	QuestionText   string    `json:"questionText,omitempty"`
	UploadedAt     time.Time `json:"uploadTimestamp"`
}

// UploadCredential is a pair of time-limited presigned URLs for one
// storage key, plus the registry entry id reserved for the upload.
type UploadCredential struct {
	UploadURL   string    `json:"uploadUrl"`
	DownloadURL string    `json:"downloadUrl"`
	StorageKey  string    `json:"storageKey"`
	EntryID     string    `json:"entryId"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Package uploads brokers file attachments: it issues presigned
// credentials for direct-to-store transfers, keeps the metadata
// registry next to the objects, and offers a server-side upload path
// for clients that cannot reach the store directly.
package uploads

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/common/metrics"
	"assessment-backend/internal/common/storage"
	"assessment-backend/internal/models"
	"assessment-backend/internal/services/fallback"
)

type Options struct {
	UploadURLTTL   time.Duration
	DownloadURLTTL time.Duration
	MaxFileSize    int64
}

type Broker struct {
	store     storage.ObjectStore
	presigner storage.Presigner
	fb        *fallback.Cache // nil when the fallback mirror is disabled
	opts      Options
	logger    logger.Logger
	clock     func() time.Time
	newID     func() string
}

func NewBroker(store storage.ObjectStore, presigner storage.Presigner, fb *fallback.Cache, opts Options, log logger.Logger) *Broker {
	if opts.UploadURLTTL <= 0 {
		opts.UploadURLTTL = 5 * time.Minute
	}
	if opts.DownloadURLTTL <= 0 {
		opts.DownloadURLTTL = time.Hour
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 25 << 20
	}
	return &Broker{
		store:     store,
		presigner: presigner,
		fb:        fb,
		opts:      opts,
		logger:    log.WithFields(map[string]interface{}{"component": "upload-broker"}),
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// ==========================
// Credential issuance
// ==========================

type CredentialRequest struct {
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	OrgID      string `json:"orgId"`
	EmployeeID *int   `json:"employeeId,omitempty"`
	QuestionID string `json:"questionId"`
}

// IssueCredential derives a deterministic storage key for the upload and
// presigns a short-lived write handle plus a longer-lived read handle.
// Issuance has no side effects, so callers retry it freely.
func (b *Broker) IssueCredential(ctx context.Context, req CredentialRequest) (*models.UploadCredential, error) {
	if result, err := validateCredentialRequest(req); err != nil {
		return nil, err
	} else if !result.Valid {
		return nil, apperrors.NewValidationError(result.Summary())
	}

	key := b.storageKey(req.OrgID, req.EmployeeID, req.QuestionID, req.FileName)
	entryID := b.newID()

	upload, err := b.presigner.PresignPut(ctx, key, req.FileType, b.opts.UploadURLTTL)
	if err != nil {
		return nil, err
	}
	download, err := b.presigner.PresignGet(ctx, key, b.opts.DownloadURLTTL)
	if err != nil {
		return nil, err
	}

	metrics.CredentialsIssued.Inc()
	b.logger.Info("upload credential issued", map[string]interface{}{
		"organizationId": req.OrgID,
		"questionId":     req.QuestionID,
		"storageKey":     key,
		"entryId":        entryID,
	})

	return &models.UploadCredential{
		UploadURL:   upload.URL,
		DownloadURL: download.URL,
		StorageKey:  key,
		EntryID:     entryID,
		ExpiresAt:   upload.ExpiresAt,
	}, nil
}

// ==========================
// Registry
// ==========================

// RegisterUpload appends the metadata record for a completed upload.
// Records are keyed by entry id, so retrying with the same id is
// idempotent. Returns true when the write was absorbed by the fallback
// mirror instead of landing remotely.
func (b *Broker) RegisterUpload(ctx context.Context, record models.FileUploadRecord) (bool, error) {
	if result, err := validateRecord(record); err != nil {
		return false, err
	} else if !result.Valid {
		return false, apperrors.NewValidationError(result.Summary())
	}

	if record.UploadedAt.IsZero() {
		record.UploadedAt = b.clock().UTC()
	}
	formType := record.FormType
	if formType == "" {
		formType = models.FormTypeOrganization
		if record.EmployeeID != nil {
			formType = models.FormTypeEmployee
		}
		record.FormType = formType
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}

	key := metadataKey(record.OrganizationID, record.EntryID)
	if err := b.store.Put(ctx, key, data, "application/json"); err != nil {
		if apperrors.IsTransport(err) && b.fb != nil {
			if fbErr := b.fb.Absorb(ctx, "uploads", key, "application/json", data); fbErr == nil {
				// absorbed registrations still count
				metrics.UploadsRegistered.WithLabelValues(formType).Inc()
				return true, nil
			}
		}
		return false, err
	}

	metrics.UploadsRegistered.WithLabelValues(formType).Inc()
	return false, nil
}

// ListFiles returns the registry records for an organization, newest
// first, optionally narrowed to one employee. Records that no longer
// decode are skipped with a warning rather than failing the listing.
func (b *Broker) ListFiles(ctx context.Context, orgID string, employeeID *int) ([]models.FileUploadRecord, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("orgId is required")
	}

	keys, err := b.store.List(ctx, metadataPrefix(orgID))
	if err != nil {
		return nil, err
	}

	records := make([]models.FileUploadRecord, 0, len(keys))
	for _, key := range keys {
		data, err := b.store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("skipping unreadable registry record", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		var record models.FileUploadRecord
		if err := json.Unmarshal(data, &record); err != nil {
			b.logger.Warn("skipping undecodable registry record", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		if employeeID != nil && (record.EmployeeID == nil || *record.EmployeeID != *employeeID) {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})
	return records, nil
}

// DeleteFile removes the object and then its registry record. A
// registry record left behind after a successful object delete is an
// accepted inconsistency window: it is logged and counted, not returned
// as a failure.
func (b *Broker) DeleteFile(ctx context.Context, entryID, storageKey string) error {
	if entryID == "" || storageKey == "" {
		return apperrors.NewValidationError("entryId and storageKey are required")
	}
	orgID, err := orgFromStorageKey(storageKey)
	if err != nil {
		return err
	}

	if err := b.store.Delete(ctx, storageKey); err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	if err := b.store.Delete(ctx, metadataKey(orgID, entryID)); err != nil && !apperrors.IsNotFound(err) {
		metrics.RegistryInconsistencies.Inc()
		b.logger.Warn("object deleted but registry record remains", map[string]interface{}{
			"entryId":    entryID,
			"storageKey": storageKey,
			"error":      err.Error(),
		})
	}

	metrics.FilesDeleted.Inc()
	return nil
}

// ==========================
// Server-side upload path
// ==========================

type DirectUploadRequest struct {
	FileName     string `json:"fileName"`
	FileType     string `json:"fileType"`
	OrgID        string `json:"orgId"`
	EmployeeID   *int   `json:"employeeId,omitempty"`
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText,omitempty"`
	FileData     string `json:"fileData"`
}

// UploadDirect accepts base64-encoded bytes through the API for clients
// whose direct-to-store upload was rejected (typically a cross-origin
// failure on the presigned handle), writes them, and registers the
// record in one call.
func (b *Broker) UploadDirect(ctx context.Context, req DirectUploadRequest) (*models.FileUploadRecord, bool, error) {
	if result, err := validateCredentialRequest(CredentialRequest{
		FileName:   req.FileName,
		FileType:   req.FileType,
		OrgID:      req.OrgID,
		EmployeeID: req.EmployeeID,
		QuestionID: req.QuestionID,
	}); err != nil {
		return nil, false, err
	} else if !result.Valid {
		return nil, false, apperrors.NewValidationError(result.Summary())
	}
	if req.FileData == "" {
		return nil, false, apperrors.NewValidationError("fileData is required")
	}

	payload := req.FileData
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	body, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false, apperrors.NewValidationError("fileData is not valid base64")
	}
	if int64(len(body)) > b.opts.MaxFileSize {
		return nil, false, apperrors.NewValidationError(fmt.Sprintf("file exceeds the %d byte limit", b.opts.MaxFileSize))
	}

	key := b.storageKey(req.OrgID, req.EmployeeID, req.QuestionID, req.FileName)
	degraded := false

	if err := b.store.Put(ctx, key, body, req.FileType); err != nil {
		if !apperrors.IsTransport(err) || b.fb == nil {
			return nil, false, err
		}
		if fbErr := b.fb.Absorb(ctx, "uploads", key, req.FileType, body); fbErr != nil {
			return nil, false, err
		}
		degraded = true
	}

	formType := models.FormTypeOrganization
	if req.EmployeeID != nil {
		formType = models.FormTypeEmployee
	}
	record := models.FileUploadRecord{
		EntryID:        b.newID(),
		OrganizationID: req.OrgID,
		EmployeeID:     req.EmployeeID,
		QuestionID:     req.QuestionID,
		FileName:       req.FileName,
		FileSize:       int64(len(body)),
		FileType:       req.FileType,
		StorageKey:     key,
		FormType:       formType,
		QuestionText:   req.QuestionText,
		UploadedAt:     b.clock().UTC(),
	}

	if download, err := b.presigner.PresignGet(ctx, key, b.opts.DownloadURLTTL); err == nil {
		record.DownloadURL = download.URL
	}

	recordDegraded, err := b.RegisterUpload(ctx, record)
	if err != nil {
		return nil, degraded, err
	}
	return &record, degraded || recordDegraded, nil
}

// ==========================
// Key derivation
// ==========================

func (b *Broker) storageKey(orgID string, employeeID *int, questionID, fileName string) string {
	scope := "organization"
	if employeeID != nil {
		scope = fmt.Sprintf("employees/%d", *employeeID)
	}
	return fmt.Sprintf("organizations/%s/uploads/%s/%s/%d_%s",
		orgID, scope, questionID, b.clock().UTC().UnixMilli(), sanitizeFileName(fileName))
}

func metadataPrefix(orgID string) string {
	return fmt.Sprintf("organizations/%s/uploads/metadata/", orgID)
}

func metadataKey(orgID, entryID string) string {
	return fmt.Sprintf("%supload-%s.json", metadataPrefix(orgID), entryID)
}

func orgFromStorageKey(storageKey string) (string, error) {
	parts := strings.Split(storageKey, "/")
	if len(parts) < 3 || parts[0] != "organizations" || parts[1] == "" {
		return "", apperrors.NewValidationError("storageKey does not match the expected key layout")
	}
	return parts[1], nil
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

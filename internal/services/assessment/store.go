// Package assessment owns the lifecycle of organization and employee
// questionnaire documents: merge-on-save, completion metrics, and the
// explicit-submit state machine.
package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/common/metrics"
	"assessment-backend/internal/common/storage"
	"assessment-backend/internal/models"
	"assessment-backend/internal/services/fallback"
	"assessment-backend/pkg/catalog"
)

type Store struct {
	store  storage.ObjectStore
	cat    *catalog.Catalog
	fb     *fallback.Cache // nil when the fallback mirror is disabled
	logger logger.Logger
	clock  func() time.Time
}

func NewStore(store storage.ObjectStore, cat *catalog.Catalog, fb *fallback.Cache, log logger.Logger) *Store {
	return &Store{
		store:  store,
		cat:    cat,
		fb:     fb,
		logger: log.WithFields(map[string]interface{}{"component": "assessment-store"}),
		clock:  time.Now,
	}
}

// ==========================
// Key layout
// ==========================

func companyKey(orgID string) string {
	return fmt.Sprintf("organizations/%s/company.json", orgID)
}

func employeeKey(orgID string, employeeID int) string {
	return fmt.Sprintf("organizations/%s/employee_%d.json", orgID, employeeID)
}

func employeePrefix(orgID string) string {
	return fmt.Sprintf("organizations/%s/employee_", orgID)
}

// ==========================
// Operations
// ==========================

// Status reports an organization's overall progress: not-started when no
// company document has ever been saved, otherwise the stored state.
func (s *Store) Status(ctx context.Context, orgID string) (*models.StatusResult, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organizationId is required")
	}

	result := &models.StatusResult{
		Status:      models.StatusNotStarted,
		EmployeeIDs: []int{},
	}

	doc, err := s.load(ctx, companyKey(orgID))
	switch {
	case err == nil:
		result.Document = doc
		result.CompletionPercentage = doc.CompletionPercentage
		lm := doc.LastModified
		result.LastModified = &lm
		if doc.State == models.StateCompleted {
			result.Status = models.StatusCompleted
		} else {
			result.Status = models.StatusInProgress
		}
	case apperrors.IsNotFound(err):
		// no company document yet
	default:
		return nil, err
	}

	ids, err := s.employeeIDs(ctx, orgID)
	if err != nil {
		return nil, err
	}
	result.EmployeeIDs = ids
	result.EmployeeCount = len(ids)
	result.NextEmployeeID = nextID(ids)

	return result, nil
}

// SaveOrganization merges delta into the organization document, creating
// it on first save. The document transitions to completed only when the
// caller explicitly submits and every required question is answered;
// answer coverage alone never completes a document.
func (s *Store) SaveOrganization(ctx context.Context, orgID string, delta map[string]interface{}, explicitSubmit bool) (*models.SaveResult, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organizationId is required")
	}
	return s.save(ctx, companyKey(orgID), orgID, nil, delta, explicitSubmit)
}

// SaveEmployee is SaveOrganization scoped by employee id.
func (s *Store) SaveEmployee(ctx context.Context, orgID string, employeeID int, delta map[string]interface{}, explicitSubmit bool) (*models.SaveResult, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organizationId is required")
	}
	if employeeID < 0 {
		return nil, apperrors.NewValidationError("employeeId must be a non-negative integer")
	}
	id := employeeID
	return s.save(ctx, employeeKey(orgID, id), orgID, &id, delta, explicitSubmit)
}

// Document returns the stored document for an organization, or for one
// employee when employeeID is present. Employee id 0 is a valid
// identifier; presence is signalled by the pointer, never by the value.
func (s *Store) Document(ctx context.Context, orgID string, employeeID *int) (*models.AssessmentDocument, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organizationId is required")
	}

	key := companyKey(orgID)
	if employeeID != nil {
		key = employeeKey(orgID, *employeeID)
	}

	doc, err := s.load(ctx, key)
	if err != nil {
		if apperrors.IsNotFound(err) {
			if employeeID != nil {
				return nil, apperrors.NewEmployeeNotFoundError(orgID, *employeeID)
			}
			return nil, apperrors.NewOrganizationNotFoundError(orgID)
		}
		return nil, err
	}
	return doc, nil
}

// EmployeeList returns a summary row per employee document.
func (s *Store) EmployeeList(ctx context.Context, orgID string) ([]models.EmployeeSummary, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organizationId is required")
	}

	ids, err := s.employeeIDs(ctx, orgID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.EmployeeSummary, 0, len(ids))
	for _, id := range ids {
		doc, err := s.load(ctx, employeeKey(orgID, id))
		if err != nil {
			s.logger.Warn("skipping unreadable employee document", map[string]interface{}{
				"organizationId": orgID,
				"employeeId":     id,
				"error":          err.Error(),
			})
			continue
		}
		summaries = append(summaries, models.EmployeeSummary{
			EmployeeID:  id,
			DisplayName: s.displayName(doc),
			Completed:   doc.State == models.StateCompleted,
			LastSaved:   doc.LastModified,
		})
	}
	return summaries, nil
}

// NextEmployeeID computes the identifier the next new-employee session
// will receive: the count of existing employee documents, advanced past
// any collision so an identifier is never reused.
func (s *Store) NextEmployeeID(ctx context.Context, orgID string) (int, error) {
	ids, err := s.employeeIDs(ctx, orgID)
	if err != nil {
		return 0, err
	}
	return nextID(ids), nil
}

// ==========================
// Internals
// ==========================

func (s *Store) save(ctx context.Context, key, orgID string, employeeID *int, delta map[string]interface{}, explicitSubmit bool) (*models.SaveResult, error) {
	formType := models.FormTypeOrganization
	if employeeID != nil {
		formType = models.FormTypeEmployee
	}

	start := s.clock()
	now := start.UTC()

	// absorbOnly marks a save whose prior document could not be read
	// because the remote was unreachable. The merged result is only a
	// partial view then, so it must never reach the remote directly: the
	// remote Put is skipped and the write goes to the mirror, where the
	// operator-gated reconcile decides when it lands.
	absorbOnly := false

	doc, err := s.load(ctx, key)
	switch {
	case err == nil:
		// merging into the existing document
	case apperrors.IsNotFound(err):
		doc = &models.AssessmentDocument{
			OrganizationID: orgID,
			EmployeeID:     employeeID,
			FormType:       formType,
			Responses:      map[string]interface{}{},
			State:          models.StateNew,
			CanModify:      true,
			CreatedAt:      now,
		}
	case apperrors.IsTransport(err):
		if s.fb == nil {
			return nil, err
		}
		absorbOnly = true
		doc = &models.AssessmentDocument{
			OrganizationID: orgID,
			EmployeeID:     employeeID,
			FormType:       formType,
			Responses:      map[string]interface{}{},
			State:          models.StateNew,
			CanModify:      true,
			CreatedAt:      now,
		}
	default:
		return nil, err
	}

	if doc.Responses == nil {
		doc.Responses = map[string]interface{}{}
	}
	for k, v := range delta {
		doc.Responses[k] = v
	}

	doc.CompletionPercentage = s.completion(doc.Responses, formType)
	doc.LastModified = now

	// completed is sticky; there is no revert operation
	if doc.State != models.StateCompleted {
		if explicitSubmit && s.requiredAnswered(doc.Responses, formType) {
			doc.State = models.StateCompleted
		} else {
			doc.State = models.StateInProgress
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	result := &models.SaveResult{
		State:                doc.State,
		CompletionPercentage: doc.CompletionPercentage,
		EmployeeID:           employeeID,
	}

	if absorbOnly {
		if fbErr := s.fb.Absorb(ctx, "assessment", key, "application/json", data); fbErr != nil {
			return nil, fbErr
		}
		result.Degraded = true
		s.recordSave(formType, doc.State, start)
		return result, nil
	}

	if err := s.store.Put(ctx, key, data, "application/json"); err != nil {
		if apperrors.IsTransport(err) && s.fb != nil {
			if fbErr := s.fb.Absorb(ctx, "assessment", key, "application/json", data); fbErr == nil {
				result.Degraded = true
				s.recordSave(formType, doc.State, start)
				return result, nil
			}
		}
		return nil, err
	}

	s.recordSave(formType, doc.State, start)
	return result, nil
}

// recordSave counts every landed save, degraded or not, so the metrics
// do not go dark during an outage.
func (s *Store) recordSave(formType, state string, start time.Time) {
	metrics.SavesTotal.WithLabelValues(formType, state).Inc()
	metrics.SaveDuration.WithLabelValues(formType).Observe(s.clock().Sub(start).Seconds())
}

func (s *Store) load(ctx context.Context, key string) (*models.AssessmentDocument, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var doc models.AssessmentDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("corrupt document at %s: %w", key, err))
	}
	return &doc, nil
}

func (s *Store) employeeIDs(ctx context.Context, orgID string) ([]int, error) {
	keys, err := s.store.List(ctx, employeePrefix(orgID))
	if err != nil {
		return nil, err
	}

	prefix := employeePrefix(orgID)
	ids := make([]int, 0, len(keys))
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		rest = strings.TrimSuffix(rest, ".json")
		id, err := strconv.Atoi(rest)
		if err != nil || id < 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// nextID is the document count, bumped past the highest assigned id when
// earlier allocations left gaps. Identifiers are never reused.
func nextID(ids []int) int {
	n := len(ids)
	for _, id := range ids {
		if id >= n {
			n = id + 1
		}
	}
	return n
}

// completion is the percentage of catalog questions with a non-blank
// answer. Answer coverage feeds the progress indicator only; it never
// drives the completed state on its own.
func (s *Store) completion(responses map[string]interface{}, formType string) int {
	questions := s.cat.ForForm(formType)
	if len(questions) == 0 {
		return 0
	}
	answered := 0
	for _, q := range questions {
		if isAnswered(responses[q.ID]) {
			answered++
		}
	}
	return answered * 100 / len(questions)
}

func (s *Store) requiredAnswered(responses map[string]interface{}, formType string) bool {
	for _, id := range s.cat.RequiredIDs(formType) {
		if !isAnswered(responses[id]) {
			return false
		}
	}
	return true
}

func (s *Store) displayName(doc *models.AssessmentDocument) string {
	if s.cat.DisplayNameQuestion == "" {
		return ""
	}
	if v, ok := doc.Responses[s.cat.DisplayNameQuestion].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func isAnswered(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}

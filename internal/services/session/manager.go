// Package session resolves who an actor is before any assessment data
// moves: a returning employee resumes by identifier, a new employee is
// ready immediately and only receives an identifier on first save.
package session

import (
	"context"

	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/models"
	"assessment-backend/internal/services/assessment"
)

type State string

const (
	StateUnresolved      State = "unresolved"
	StateNewPending      State = "new_pending"
	StateResumeRequested State = "resume_requested"
	StateIdentified      State = "identified"
)

type Scope string

const (
	ScopeOrganization Scope = "organization"
	ScopeEmployee     Scope = "employee"
)

// Session is an immutable value object describing one actor's resolved
// identity. Transitions return a new value; callers never mutate one in
// place, which keeps organization and employee scopes from bleeding
// into each other. EmployeeID presence is the pointer, never the value:
// id 0 is as valid as any other.
type Session struct {
	Scope          Scope  `json:"scope"`
	OrganizationID string `json:"organizationId"`
	EmployeeID     *int   `json:"employeeId,omitempty"`
	State          State  `json:"state"`
	Ready          bool   `json:"ready"`
}

type Manager struct {
	store  *assessment.Store
	logger logger.Logger
}

func NewManager(store *assessment.Store, log logger.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "session-manager"}),
	}
}

// Organization opens the organization-scope session. The organization
// identifier is externally supplied, so there is nothing to allocate or
// validate beyond its presence.
func (m *Manager) Organization(orgID string) (Session, error) {
	if orgID == "" {
		return Session{}, apperrors.NewValidationError("organizationId is required")
	}
	return Session{
		Scope:          ScopeOrganization,
		OrganizationID: orgID,
		State:          StateIdentified,
		Ready:          true,
	}, nil
}

// BeginNewEmployee starts a new-employee session. The session is ready
// at once so questions can render without a round trip; the identifier
// is allocated on the first save, not here.
func (m *Manager) BeginNewEmployee(orgID string) (Session, error) {
	if orgID == "" {
		return Session{}, apperrors.NewValidationError("organizationId is required")
	}
	return Session{
		Scope:          ScopeEmployee,
		OrganizationID: orgID,
		State:          StateNewPending,
		Ready:          true,
	}, nil
}

// Resume validates an existing employee identifier against the store.
// On not-found the caller gets the error and a session back in the
// unresolved state. When the store is unreachable the identifier is
// trusted as-is: it was handed out by a prior successful save, and
// refusing it here would cut employee saves off from the fallback
// mirror for the whole outage.
func (m *Manager) Resume(ctx context.Context, orgID string, employeeID int) (Session, error) {
	if orgID == "" {
		return Session{}, apperrors.NewValidationError("organizationId is required")
	}
	if employeeID < 0 {
		return Session{}, apperrors.NewValidationError("employeeId must be a non-negative integer")
	}

	requested := Session{
		Scope:          ScopeEmployee,
		OrganizationID: orgID,
		State:          StateResumeRequested,
	}

	id := employeeID
	if _, err := m.store.Document(ctx, orgID, &id); err != nil {
		switch {
		case apperrors.IsNotFound(err):
			requested.State = StateUnresolved
			return requested, apperrors.NewEmployeeNotFoundError(orgID, employeeID)
		case apperrors.IsTransport(err):
			m.logger.Warn("store unreachable, trusting supplied employee identifier", map[string]interface{}{
				"organizationId": orgID,
				"employeeId":     employeeID,
			})
		default:
			return requested, err
		}
	}

	requested.EmployeeID = &id
	requested.State = StateIdentified
	requested.Ready = true
	return requested, nil
}

// Save lands a response delta for the session's identity. A new-pending
// employee session is identified here: the next identifier is computed
// from the count of existing employee documents and the first document
// is persisted under it.
func (m *Manager) Save(ctx context.Context, sess Session, delta map[string]interface{}, explicitSubmit bool) (Session, *models.SaveResult, error) {
	if !sess.Ready {
		return sess, nil, apperrors.NewValidationError("session is not ready")
	}

	if sess.Scope == ScopeOrganization {
		result, err := m.store.SaveOrganization(ctx, sess.OrganizationID, delta, explicitSubmit)
		return sess, result, err
	}

	if sess.EmployeeID == nil {
		id, err := m.store.NextEmployeeID(ctx, sess.OrganizationID)
		if err != nil {
			return sess, nil, err
		}
		result, err := m.store.SaveEmployee(ctx, sess.OrganizationID, id, delta, explicitSubmit)
		if err != nil {
			return sess, nil, err
		}
		m.logger.Info("employee identifier allocated", map[string]interface{}{
			"organizationId": sess.OrganizationID,
			"employeeId":     id,
		})
		identified := sess
		identified.EmployeeID = &id
		identified.State = StateIdentified
		return identified, result, nil
	}

	result, err := m.store.SaveEmployee(ctx, sess.OrganizationID, *sess.EmployeeID, delta, explicitSubmit)
	return sess, result, err
}

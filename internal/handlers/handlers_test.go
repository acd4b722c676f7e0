package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/database"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/common/storage"
	"assessment-backend/internal/models"
	"assessment-backend/internal/services/assessment"
	"assessment-backend/internal/services/fallback"
	"assessment-backend/internal/services/session"
	"assessment-backend/internal/services/uploads"
	"assessment-backend/pkg/catalog"
)

func createTestApp(t *testing.T) (*fiber.App, *storage.MemoryStore) {
	t.Helper()

	cat := &catalog.Catalog{
		DisplayNameQuestion: "emp_name",
		Questions: []catalog.Question{
			{ID: "org_name", FormType: models.FormTypeOrganization, Required: true},
			{ID: "org_sector", FormType: models.FormTypeOrganization, Required: true},
			{ID: "emp_name", FormType: models.FormTypeEmployee, Required: true},
			{ID: "emp_role", FormType: models.FormTypeEmployee},
		},
	}

	log := logger.NewTestLogger(t)
	mem := storage.NewMemoryStore()
	store := assessment.NewStore(mem, cat, nil, log)
	sessions := session.NewManager(store, log)
	broker := uploads.NewBroker(mem, mem, nil, uploads.Options{}, log)
	errs := apperrors.NewErrorHandler(log)

	app := fiber.New()
	Register(app, Set{
		Assessment: NewAssessmentHandler(store, sessions, errs, log),
		Uploads:    NewUploadHandler(broker, errs, log),
		System:     NewSystemHandler(nil, errs, log),
	}, nil)
	return app, mem
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestCompanyStatusNotStarted(t *testing.T) {
	app, _ := createTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/company-status/acme", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not-started", body["status"])
}

func TestSaveCompanyRoundTrip(t *testing.T) {
	app, _ := createTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/save-company", SaveCompanyRequest{
		OrgID:     "acme",
		Responses: map[string]interface{}{"org_name": "ACME"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StateInProgress, body["state"])

	resp, body = doJSON(t, app, http.MethodGet, "/company-status/acme", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "in_progress", body["status"])
	formData := body["formData"].(map[string]interface{})
	assert.Equal(t, "ACME", formData["org_name"])
}

func TestExplicitSubmitCompletes(t *testing.T) {
	app, _ := createTestApp(t)

	_, _ = doJSON(t, app, http.MethodPost, "/save-company", SaveCompanyRequest{
		OrgID:     "acme",
		Responses: map[string]interface{}{"org_name": "ACME", "org_sector": "retail"},
	})

	resp, body := doJSON(t, app, http.MethodPost, "/save-company", SaveCompanyRequest{
		OrgID:            "acme",
		IsExplicitSubmit: true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StateCompleted, body["state"])
	assert.Equal(t, float64(100), body["completionPercentage"])
}

func TestSaveEmployeeAllocatesIdentifier(t *testing.T) {
	app, _ := createTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/save-employee", SaveEmployeeRequest{
		OrgID:         "acme",
		IsNewEmployee: true,
		Responses:     map[string]interface{}{"emp_name": "Alex"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["employeeId"])

	resp, body = doJSON(t, app, http.MethodPost, "/save-employee", SaveEmployeeRequest{
		OrgID:         "acme",
		IsNewEmployee: true,
		Responses:     map[string]interface{}{"emp_name": "Billie"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["employeeId"])
}

func TestSaveEmployeeRequiresIdentityOrHint(t *testing.T) {
	app, _ := createTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/save-employee", SaveEmployeeRequest{
		OrgID:     "acme",
		Responses: map[string]interface{}{"emp_name": "Alex"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), body["code"])
}

func TestEmployeeDataFoundFalse(t *testing.T) {
	app, _ := createTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/employee-data/acme/3", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["found"])
}

func TestEmployeeDataZeroIdentifier(t *testing.T) {
	app, _ := createTestApp(t)

	_, _ = doJSON(t, app, http.MethodPost, "/save-employee", SaveEmployeeRequest{
		OrgID:         "acme",
		IsNewEmployee: true,
		Responses:     map[string]interface{}{"emp_name": "Alex"},
	})

	resp, body := doJSON(t, app, http.MethodGet, "/employee-data/acme/0", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["found"])
	formData := body["formData"].(map[string]interface{})
	assert.Equal(t, "Alex", formData["emp_name"])
}

func TestEmployeeList(t *testing.T) {
	app, _ := createTestApp(t)

	_, _ = doJSON(t, app, http.MethodPost, "/save-employee", SaveEmployeeRequest{
		OrgID:         "acme",
		IsNewEmployee: true,
		Responses:     map[string]interface{}{"emp_name": "Alex"},
	})

	resp, body := doJSON(t, app, http.MethodGet, "/employee-list/acme", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	employees := body["employees"].([]interface{})
	require.Len(t, employees, 1)
	first := employees[0].(map[string]interface{})
	assert.Equal(t, "Alex", first["displayName"])
}

func TestPresignedURLValidation(t *testing.T) {
	app, _ := createTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/presigned-url", uploads.CredentialRequest{
		FileType:   "application/pdf",
		OrgID:      "acme",
		QuestionID: "q1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), body["code"])
}

func TestFileLifecycleOverHTTP(t *testing.T) {
	app, mem := createTestApp(t)

	resp, cred := doJSON(t, app, http.MethodPost, "/presigned-url", uploads.CredentialRequest{
		FileName:   "evidence.pdf",
		FileType:   "application/pdf",
		OrgID:      "acme",
		QuestionID: "q1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entryID := cred["entryId"].(string)
	storageKey := cred["storageKey"].(string)

	// the client uploads through the presigned handle; simulate the
	// landed object directly
	require.NoError(t, mem.Put(context.Background(), storageKey, []byte("bytes"), "application/pdf"))

	resp, body := doJSON(t, app, http.MethodPost, "/file-registry", map[string]interface{}{
		"entryId":    entryID,
		"orgId":      "acme",
		"questionId": "q1",
		"fileName":   "evidence.pdf",
		"fileSize":   5,
		"fileType":   "application/pdf",
		"storageKey": storageKey,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = doJSON(t, app, http.MethodGet, "/file-registry?orgId=acme", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	files := body["files"].([]interface{})
	require.Len(t, files, 1)

	resp, body = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/file/%s", entryID), DeleteFileRequest{StorageKey: storageKey})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = doJSON(t, app, http.MethodGet, "/file-registry?orgId=acme", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["files"])
}

func TestHealth(t *testing.T) {
	app, _ := createTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["degraded"])
}

func TestReconcileWithoutFallback(t *testing.T) {
	app, _ := createTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/reconcile", map[string]interface{}{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestEmployeeDataRejectsNegativeIdentifier(t *testing.T) {
	app, _ := createTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/employee-data/acme/-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveEmployeeDegradesWhenStoreFullyUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rdb := database.NewRedisFromClient(client)

	cat := &catalog.Catalog{
		Questions: []catalog.Question{
			{ID: "org_name", FormType: models.FormTypeOrganization, Required: true},
			{ID: "emp_name", FormType: models.FormTypeEmployee, Required: true},
		},
	}

	log := logger.NewTestLogger(t)
	mem := storage.NewMemoryStore()
	fb := fallback.New(rdb, mem, log)
	store := assessment.NewStore(mem, cat, fb, log)
	sessions := session.NewManager(store, log)
	broker := uploads.NewBroker(mem, mem, fb, uploads.Options{}, log)
	errs := apperrors.NewErrorHandler(log)

	app := fiber.New()
	Register(app, Set{
		Assessment: NewAssessmentHandler(store, sessions, errs, log),
		Uploads:    NewUploadHandler(broker, errs, log),
		System:     NewSystemHandler(fb, errs, log),
	}, nil)

	ctx := context.Background()
	_, err := store.SaveEmployee(ctx, "acme", 0, map[string]interface{}{"emp_name": "Alex"}, false)
	require.NoError(t, err)

	// full outage, not just writes
	mem.FailPuts = true
	mem.FailGets = true
	mem.FailLists = true

	id := 0
	resp, body := doJSON(t, app, http.MethodPost, "/save-employee", SaveEmployeeRequest{
		OrgID:      "acme",
		EmployeeID: &id,
		Responses:  map[string]interface{}{"emp_name": "Alexandra"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, float64(0), body["employeeId"])

	// organization saves degrade the same way
	resp, body = doJSON(t, app, http.MethodPost, "/save-company", SaveCompanyRequest{
		OrgID:     "acme",
		Responses: map[string]interface{}{"org_name": "ACME"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["degraded"])

	pending, err := fb.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

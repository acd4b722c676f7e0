package uploads

import (
	"encoding/json"

	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/validation"
	"assessment-backend/internal/models"
)

var credentialRequestSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"fileName", "fileType", "orgId", "questionId"},
	"properties": map[string]interface{}{
		"fileName":   map[string]interface{}{"type": "string", "minLength": 1},
		"fileType":   map[string]interface{}{"type": "string", "minLength": 1},
		"orgId":      map[string]interface{}{"type": "string", "minLength": 1},
		"questionId": map[string]interface{}{"type": "string", "minLength": 1},
		"employeeId": map[string]interface{}{"type": "integer", "minimum": 0},
	},
}

var recordSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"entryId", "organizationId", "questionId", "fileName", "storageKey"},
	"properties": map[string]interface{}{
		"entryId":        map[string]interface{}{"type": "string", "minLength": 1},
		"organizationId": map[string]interface{}{"type": "string", "minLength": 1},
		"questionId":     map[string]interface{}{"type": "string", "minLength": 1},
		"fileName":       map[string]interface{}{"type": "string", "minLength": 1},
		"storageKey":     map[string]interface{}{"type": "string", "minLength": 1},
		"fileSize":       map[string]interface{}{"type": "integer", "minimum": 0},
		"employeeId":     map[string]interface{}{"type": "integer", "minimum": 0},
	},
}

func validateCredentialRequest(req CredentialRequest) (*validation.ValidationResult, error) {
	doc, err := toDocument(req)
	if err != nil {
		return nil, err
	}
	return validation.ValidateAgainstSchema(doc, credentialRequestSchema)
}

func validateRecord(record models.FileUploadRecord) (*validation.ValidationResult, error) {
	doc, err := toDocument(record)
	if err != nil {
		return nil, err
	}
	return validation.ValidateAgainstSchema(doc, recordSchema)
}

func toDocument(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return doc, nil
}

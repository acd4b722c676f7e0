package validation

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Summary flattens the validation errors into one message suitable for
// an error response body.
func (r *ValidationResult) Summary() string {
	if r.Valid {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e.Field != "" && e.Field != "(root)" {
			parts = append(parts, e.Field+": "+e.Message)
		} else {
			parts = append(parts, e.Message)
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateAgainstSchema validates a decoded JSON document against a
// Go-map JSON schema.
func ValidateAgainstSchema(data map[string]interface{}, schemaMap map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, err
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}

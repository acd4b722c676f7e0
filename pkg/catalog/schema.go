// pkg/catalog/schema.go
package catalog

// Catalog is the externally supplied question catalog. It is a static
// ordered list of question descriptors; this service only consumes it to
// compute completion metrics, never to render questions.
type Catalog struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Questions   []Question `json:"questions"`

	// DisplayNameQuestion optionally names the employee question whose
	// answer is shown as the employee's display name in listings.
	DisplayNameQuestion string `json:"displayNameQuestion,omitempty"`
}

type Question struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	// FormType is "organization" or "employee".
	FormType string `json:"formType"`
	Required bool   `json:"required"`
}

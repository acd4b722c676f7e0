// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"os"
)

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	err = json.Unmarshal(data, &cat)
	return &cat, err
}

// ForForm returns the questions belonging to one form type.
func (c *Catalog) ForForm(formType string) []Question {
	var out []Question
	for _, q := range c.Questions {
		if q.FormType == formType {
			out = append(out, q)
		}
	}
	return out
}

// Total returns the number of questions for a form type.
func (c *Catalog) Total(formType string) int {
	return len(c.ForForm(formType))
}

// RequiredIDs returns the ids of the required questions for a form type.
func (c *Catalog) RequiredIDs(formType string) []string {
	var ids []string
	for _, q := range c.ForForm(formType) {
		if q.Required {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// Package filter computes the visible subset of the document collection.
package filter

import (
	"strings"

	"github.com/starford/docuflow/internal/models"
)

// All is the category sentinel that disables category filtering.
const All = "all"

// Apply returns the documents whose category equals category (unless it is
// All) and whose name contains search, case-insensitively (unless search is
// empty). Input order is preserved and docs is not modified.
func Apply(docs []models.Document, category, search string) []models.Document {
	term := strings.ToLower(search)
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if category != All && d.CategoryID != category {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(d.Name), term) {
			continue
		}
		out = append(out, d)
	}
	return out
}

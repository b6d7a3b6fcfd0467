package service

import (
	"strings"

	"stepable/internal/model"
)

// FilterAll matches every category or kind.
const FilterAll = "all"

// DocumentFilter narrows a library listing. Empty fields match everything.
type DocumentFilter struct {
	Query    string
	Category string
	Kind     string
}

// Matches reports whether d passes the filter. The query is a case-insensitive
// substring of the title, the description or any tag.
func (f DocumentFilter) Matches(d model.Document) bool {
	if !matchesOption(f.Category, d.Category) || !matchesOption(f.Kind, d.Kind) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Description), q) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func matchesOption(want, got string) bool {
	return want == "" || want == FilterAll || strings.EqualFold(want, got)
}

// FilterDocuments returns the documents matching f, in input order.
func FilterDocuments(docs []model.Document, f DocumentFilter) []model.Document {
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

func FeaturedDocuments(docs []model.Document) []model.Document {
	out := make([]model.Document, 0)
	for _, d := range docs {
		if d.Featured {
			out = append(out, d)
		}
	}
	return out
}

// ProjectMatches reports whether query is a case-insensitive substring of name.
func ProjectMatches(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(strings.TrimSpace(query)))
}

func FilterProjects(projects []model.Project, query string) []model.Project {
	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if ProjectMatches(p.Name, query) {
			out = append(out, p)
		}
	}
	return out
}

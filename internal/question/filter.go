package question

import "strings"

// SearchByText keeps questions whose text contains term, ignoring case.
func SearchByText(items []Question, term string) []Question {
	needle := strings.ToLower(term)
	out := make([]Question, 0, len(items))
	for _, q := range items {
		if strings.Contains(strings.ToLower(q.Text), needle) {
			out = append(out, q)
		}
	}
	return out
}

// ByCategory keeps questions belonging to categoryID. Uncategorised questions never match.
func ByCategory(items []Question, categoryID int64) []Question {
	out := make([]Question, 0, len(items))
	for _, q := range items {
		if q.InCategory(categoryID) {
			out = append(out, q)
		}
	}
	return out
}

package upstream

import (
	"fmt"
	"strings"
)

// MatchOutcome distinguishes a confident match from a best guess when a
// collection response is reconciled into a single record.
type MatchOutcome int

const (
	// MatchNotFound means the collection was empty or not a collection.
	MatchNotFound MatchOutcome = iota
	// MatchFallback means no exact match existed and a positional guess was used.
	MatchFallback
	// Matched means the document was resolved by id or name.
	Matched
)

// MatchResult is the outcome of reconciling a collection into one document.
type MatchResult struct {
	Outcome MatchOutcome
	Doc     any
}

// MatchStudent resolves a single student document out of list. Priority:
// exact id match combined with a case-insensitive first/last name match,
// then the first id-filtered element, then the first element of the whole
// collection. Name matching splits fullName into tokens and compares the
// first and last against the document's firstname/lastname fields.
func MatchStudent(list []any, studentID, fullName string) MatchResult {
	if len(list) == 0 {
		return MatchResult{Outcome: MatchNotFound}
	}

	byID := make([]any, 0, len(list))
	for _, item := range list {
		if stringField(item, "id", "studentId", "student_id") == studentID {
			byID = append(byID, item)
		}
	}

	first, last := splitName(fullName)
	candidates := byID
	if len(candidates) == 0 {
		candidates = list
	}
	for _, item := range candidates {
		if strings.EqualFold(stringField(item, "firstname", "first_name"), first) &&
			strings.EqualFold(stringField(item, "lastname", "last_name"), last) {
			return MatchResult{Outcome: Matched, Doc: item}
		}
	}

	if len(byID) > 0 {
		return MatchResult{Outcome: MatchFallback, Doc: byID[0]}
	}
	return MatchResult{Outcome: MatchFallback, Doc: list[0]}
}

func splitName(fullName string) (first, last string) {
	tokens := strings.Fields(fullName)
	if len(tokens) > 0 {
		first = tokens[0]
	}
	if len(tokens) > 1 {
		last = tokens[len(tokens)-1]
	}
	return first, last
}

// stringField returns the first present key of doc as a string. Numeric JSON
// values are formatted without a decimal point so that id 42 matches "42".
func stringField(doc any, keys ...string) string {
	m, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return val
		case float64:
			if val == float64(int64(val)) {
				return fmt.Sprintf("%d", int64(val))
			}
			return fmt.Sprintf("%v", val)
		default:
			return fmt.Sprintf("%v", val)
		}
	}
	return ""
}

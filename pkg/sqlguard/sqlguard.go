// Package sqlguard screens statements sent to the structured-query tool.
// Only read-only statement forms pass, and row-returning reads get a row cap
// appended when the author left one off.
package sqlguard

import (
	"fmt"
	"strings"
)

var readForms = map[string]bool{
	"select":  true,
	"with":    true,
	"show":    true,
	"explain": true,
}

// ValidateReadOnly rejects statements that are not a single read-only
// statement. The check is syntactic: first keyword plus a multi-statement
// guard, matching what the tool servers enforce on their side.
func ValidateReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("empty query")
	}

	trimmed = strings.TrimRight(trimmed, "; \t\r\n")
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}

	first := firstKeyword(trimmed)
	if !readForms[first] {
		return fmt.Errorf("only SELECT, WITH, SHOW, and EXPLAIN statements are allowed, got %q", strings.ToUpper(first))
	}
	return nil
}

// EnsureLimit appends a LIMIT clause to row-returning reads (SELECT, WITH)
// that do not already carry one. Other statement forms pass through untouched.
func EnsureLimit(query string, max int) string {
	trimmed := strings.TrimRight(strings.TrimSpace(query), "; \t\r\n")
	first := firstKeyword(trimmed)
	if first != "select" && first != "with" {
		return trimmed
	}
	if hasKeyword(trimmed, "limit") {
		return trimmed
	}
	return fmt.Sprintf("%s LIMIT %d", trimmed, max)
}

func firstKeyword(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[0], "("))
}

func hasKeyword(query string, keyword string) bool {
	for _, field := range strings.Fields(query) {
		if strings.EqualFold(strings.Trim(field, "();,"), keyword) {
			return true
		}
	}
	return false
}

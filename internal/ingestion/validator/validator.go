// Package validator checks ingestion requests before anything is persisted
// and reports per-field error details.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/ingestion"
)

const (
	maxTextLength = 1 << 20
	maxIDLength   = 255
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks the text and optional ID of req.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	switch {
	case strings.TrimSpace(req.Text) == "":
		errs["text"] = "text is required and must not be blank"
	case len(req.Text) > maxTextLength:
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	case !utf8.ValidString(req.Text):
		errs["text"] = "text must be valid UTF-8"
	}

	if req.ID != "" {
		switch {
		case len(req.ID) > maxIDLength:
			errs["id"] = fmt.Sprintf("id must be at most %d characters", maxIDLength)
		case !idPattern.MatchString(req.ID):
			errs["id"] = "id may only contain letters, digits, '.', '_' and '-'"
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

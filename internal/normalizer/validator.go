package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"microharvest/internal/models"
)

// Validation errors.
var (
	ErrInvalidMetadata = errors.New("invalid metadata document")
	ErrMissingIDNo     = errors.New("missing idno in title statement")
	ErrMissingTitle    = errors.New("missing title in title statement")
)

// Validator checks that a metadata document carries the fields every record needs.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the document before it is mapped.
func (v *Validator) Validate(doc *models.MetadataDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidMetadata)
	}

	if strings.TrimSpace(doc.StudyDesc.TitleStatement.IDNo) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, ErrMissingIDNo)
	}

	if strings.TrimSpace(doc.StudyDesc.TitleStatement.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, ErrMissingTitle)
	}

	return nil
}

package checkdocumentcompleteness

import "startup-intake/internal/intake/validation"

type Input struct {
	ApplicationID int64 `json:"applicationId"`
}

// Output is merged into the process variables. MissingDocuments lists the
// document leaves that fail; ValidationErrors carries every failure.
type Output struct {
	IsComplete       bool                    `json:"isComplete"`
	MissingDocuments []string                `json:"missingDocuments"`
	ValidationErrors []validation.FieldError `json:"validationErrors"`
}

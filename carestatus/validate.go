package carestatus

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks a care log entry before it is handed to the backing
// store. Violations come back as *ValidationError so the UI can surface
// them inline rather than as a failed write.
func (e CareLogEntry) Validate() error {
	categories := make([]interface{}, len(KnownCategories))
	for i, c := range KnownCategories {
		categories[i] = c
	}

	err := validation.ValidateStruct(&e,
		validation.Field(&e.DogID, validation.Required),
		validation.Field(&e.Category, validation.Required, validation.In(categories...)),
		validation.Field(&e.TaskName, validation.Required, validation.Length(1, 120)),
		validation.Field(&e.Timestamp, validation.Required),
		validation.Field(&e.Notes, validation.Length(0, 2000)),
	)
	return asValidationError(err)
}

// ValidateNote rejects empty or oversized observation note content.
func ValidateNote(text string) error {
	err := validation.Validate(text,
		validation.Required.Error("note content must not be empty"),
		validation.Length(1, 2000),
	)
	if err != nil {
		return &ValidationError{Field: "notes", Message: err.Error()}
	}
	return nil
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok || len(errs) == 0 {
		return &ValidationError{Field: "entry", Message: err.Error()}
	}
	// Deterministic choice when several fields fail.
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &ValidationError{Field: fields[0], Message: errs[fields[0]].Error()}
}

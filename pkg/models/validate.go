package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError describes a single invalid field of a worker or task
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the worker's fields and availability windows.
// Windows must be non-empty, ordered by start and must not overlap.
func (w Worker) Validate() error {
	if err := structError(validate.Struct(w)); err != nil {
		return err
	}
	for i, win := range w.Availability {
		field := fmt.Sprintf("availability[%d]", i)
		if err := validateWindow(field, win); err != nil {
			return err
		}
		if i > 0 && win.Start.Before(w.Availability[i-1].End) {
			return &FieldError{Field: field, Reason: "overlaps or precedes the previous window"}
		}
	}
	return nil
}

// Validate checks the task's fields and optional window
func (t Task) Validate() error {
	if err := structError(validate.Struct(t)); err != nil {
		return err
	}
	if t.Window != nil {
		return validateWindow("window", *t.Window)
	}
	return nil
}

func validateWindow(field string, w TimeWindow) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return &FieldError{Field: field, Reason: "start and end are required"}
	}
	if !w.End.After(w.Start) {
		return &FieldError{Field: field, Reason: "end must be after start"}
	}
	return nil
}

func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &FieldError{Field: fe.Field(), Reason: reasonFor(fe)}
	}
	return err
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be less than " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}

package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/agrorisk/pkg/entities"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// ErrNilSnapshot is returned when an analysis is handed no snapshot at all.
	ErrNilSnapshot = errors.New("snapshot cannot be nil")
)

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("finite", isFinite); err != nil {
		panic(err)
	}
}

// isFinite rejects NaN and ±Inf, which Postgres double precision columns can
// hold and JSON cannot encode.
func isFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return !math.IsNaN(f.Float()) && !math.IsInf(f.Float(), 0)
	}
	return true
}

// ValidationError reports a malformed or contradictory snapshot. It is fatal to
// the analysis that encountered it and is always surfaced to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid snapshot: " + e.Reason
	}
	return fmt.Sprintf("invalid snapshot: %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateSnapshot checks struct-level constraints (non-negative areas, capital,
// contract values and lawsuit counts, required ids) and that ids are unique
// within each record type.
func ValidateSnapshot(snap *entities.Snapshot) error {
	if snap == nil {
		return &ValidationError{Reason: ErrNilSnapshot.Error()}
	}

	if err := validate.Struct(snap); err != nil {
		return formatValidationError(err)
	}

	if err := checkUnique("properties", len(snap.Properties), func(i int) string { return snap.Properties[i].ID }); err != nil {
		return err
	}
	if err := checkUnique("companies", len(snap.Companies), func(i int) string { return snap.Companies[i].ID }); err != nil {
		return err
	}
	if err := checkUnique("persons", len(snap.Persons), func(i int) string { return snap.Persons[i].ID }); err != nil {
		return err
	}
	if err := checkUnique("legal_queries", len(snap.LegalQueries), func(i int) string { return snap.LegalQueries[i].ID }); err != nil {
		return err
	}
	return checkUnique("lease_contracts", len(snap.LeaseContracts), func(i int) string { return snap.LeaseContracts[i].ID })
}

func checkUnique(field string, n int, id func(int) string) error {
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		key := strings.TrimSpace(id(i))
		if first, ok := seen[key]; ok {
			return &ValidationError{
				Field:  fmt.Sprintf("%s[%d].id", field, i),
				Reason: fmt.Sprintf("duplicate id %q (first seen at index %d)", key, first),
			}
		}
		seen[key] = i
	}
	return nil
}

// formatValidationError converts validator errors to a ValidationError naming
// the offending field by its namespace, e.g. Snapshot.Properties[3].AreaHectares.
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &ValidationError{Reason: err.Error()}
	}

	// Report the first failure
	for _, e := range validationErrs {
		field := strings.TrimPrefix(e.Namespace(), "Snapshot.")
		switch e.Tag() {
		case "required":
			return &ValidationError{Field: field, Reason: "field is required"}
		case "gte":
			return &ValidationError{Field: field, Reason: fmt.Sprintf("must be >= %s, got %v", e.Param(), e.Value())}
		case "finite":
			return &ValidationError{Field: field, Reason: fmt.Sprintf("must be a finite number, got %v", e.Value())}
		case "oneof":
			return &ValidationError{Field: field, Reason: fmt.Sprintf("must be one of [%s], got %v", e.Param(), e.Value())}
		default:
			return &ValidationError{Field: field, Reason: fmt.Sprintf("validation failed (%s)", e.Tag())}
		}
	}

	return &ValidationError{Reason: err.Error()}
}

package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// Issue describes one structural problem found in a snapshot
type Issue struct {
	Entity  string
	ID      string
	Field   string
	Problem string
}

func (i Issue) String() string {
	id := i.ID
	if id == "" {
		id = "<no id>"
	}
	if i.Field == "" {
		return fmt.Sprintf("%s %s: %s", i.Entity, id, i.Problem)
	}
	return fmt.Sprintf("%s %s: %s %s", i.Entity, id, i.Field, i.Problem)
}

// ValidationError reports malformed input. A reconciliation that fails
// validation applies nothing.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "invalid snapshot: " + strings.Join(parts, "; ")
}

// SnapshotValidator checks the structural integrity of reconciliation inputs
type SnapshotValidator struct {
	validate *validator.Validate
}

// NewSnapshotValidator creates a new snapshot validator
func NewSnapshotValidator() *SnapshotValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return &SnapshotValidator{validate: v}
}

// decimalValue exposes decimals to numeric tags such as gte=0
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// Validate checks every entity of the snapshot and returns a *ValidationError
// listing all issues, or nil when the snapshot is well formed
func (v *SnapshotValidator) Validate(snapshot *entities.Snapshot) error {
	if snapshot == nil {
		return &ValidationError{Issues: []Issue{{Entity: "snapshot", Problem: "is missing"}}}
	}

	var issues []Issue

	for _, p := range snapshot.Products {
		issues = append(issues, v.check("product", string(p.ID), p)...)
	}
	for _, l := range snapshot.Locations {
		issues = append(issues, v.check("location", string(l.ID), l)...)
	}
	for _, t := range snapshot.Transfers {
		issues = append(issues, v.check("transfer", t.ID, t)...)
	}
	for _, o := range snapshot.Orders {
		issues = append(issues, v.check("order", o.ID, o)...)
	}

	issues = append(issues, v.duplicateIDs(snapshot)...)

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// check runs the struct tags of a single entity
func (v *SnapshotValidator) check(entity, id string, value interface{}) []Issue {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []Issue{{Entity: entity, ID: id, Problem: err.Error()}}
	}

	issues := make([]Issue, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		issues = append(issues, Issue{
			Entity:  entity,
			ID:      id,
			Field:   fieldPath(fe.StructNamespace()),
			Problem: describeTag(fe),
		})
	}
	return issues
}

// fieldPath strips the struct name from a validator namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), rawString(fe.Value()))
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// rawString formats string kinds without their String method, which maps
// unknown enum values to "unknown"
func rawString(value interface{}) string {
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.String {
		return rv.String()
	}
	return fmt.Sprint(value)
}

// duplicateIDs reports ids used more than once within a collection
func (v *SnapshotValidator) duplicateIDs(snapshot *entities.Snapshot) []Issue {
	var issues []Issue

	report := func(entity string, ids []string) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" {
				continue
			}
			if seen[id] {
				issues = append(issues, Issue{Entity: entity, ID: id, Problem: "duplicate id"})
				continue
			}
			seen[id] = true
		}
	}

	productIDs := make([]string, len(snapshot.Products))
	for i, p := range snapshot.Products {
		productIDs[i] = string(p.ID)
	}
	report("product", productIDs)

	locationIDs := make([]string, len(snapshot.Locations))
	for i, l := range snapshot.Locations {
		locationIDs[i] = string(l.ID)
	}
	report("location", locationIDs)

	transferIDs := make([]string, len(snapshot.Transfers))
	for i, t := range snapshot.Transfers {
		transferIDs[i] = t.ID
	}
	report("transfer", transferIDs)

	orderIDs := make([]string, len(snapshot.Orders))
	for i, o := range snapshot.Orders {
		orderIDs[i] = o.ID
	}
	report("order", orderIDs)

	return issues
}

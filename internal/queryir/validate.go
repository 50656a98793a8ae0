package queryir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/forgeplan/internal/ir"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when Errors is empty.
	Valid bool

	// Errors describe unknown tables, unknown columns and malformed nodes,
	// in traversal order.
	Errors []string
}

// Validate checks q against schema. It is a pure function.
func Validate(q Query, schema Schema) ValidationResult {
	v := &validator{schema: schema, errors: []string{}}
	v.validateQuery(q)
	return ValidationResult{Valid: len(v.errors) == 0, Errors: v.errors}
}

type validator struct {
	schema Schema
	errors []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addError("nil query")
	case Select:
		v.validateSelect(query, []string{query.From})
	case *Select:
		v.validateSelect(*query, []string{query.From})
	case Join:
		v.validateJoin(query)
	case *Join:
		v.validateJoin(*query)
	default:
		v.addError("unknown query type %T", q)
	}
}

// validateSelect checks sel; scope lists the tables its predicates may
// reference with qualified names.
func (v *validator) validateSelect(sel Select, scope []string) {
	if _, ok := v.schema[sel.From]; !ok {
		v.addError("unknown table %q", sel.From)
		return
	}
	if len(sel.Columns) == 0 && len(scope) == 1 {
		v.addError("select from %s: columns must be explicit", sel.From)
	}
	for _, c := range sel.Columns {
		v.checkColumn(sel.From, c)
	}
	for _, o := range sel.OrderBy {
		v.checkColumn(sel.From, o.Column)
	}
	if sel.Limit < 0 {
		v.addError("select from %s: limit must be >= 0, got %d", sel.From, sel.Limit)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter, sel.From, scope)
	}
}

func (v *validator) validateJoin(j Join) {
	scope := []string{j.Left.From, j.Right.From}
	if j.Left.From == j.Right.From {
		v.addError("self join of %s is not supported", j.Left.From)
	}
	v.validateSelect(j.Left, scope)
	v.validateSelect(j.Right, scope)
	if j.Right.Limit != 0 || len(j.Right.OrderBy) > 0 {
		v.addError("join right side %s cannot carry order or limit", j.Right.From)
	}
	if j.On == nil {
		v.addError("join of %s and %s: on predicate is required", j.Left.From, j.Right.From)
		return
	}
	v.validatePredicate(j.On, "", scope)
}

// validatePredicate checks p. Unqualified fields resolve against table.
func (v *validator) validatePredicate(p Predicate, table string, scope []string) {
	switch pred := p.(type) {
	case Equals:
		v.checkField(pred.Field, table, scope)
		v.checkScalar(pred.Field, pred.Value)
	case *Equals:
		v.validatePredicate(*pred, table, scope)
	case AtMost:
		v.checkField(pred.Field, table, scope)
	case *AtMost:
		v.validatePredicate(*pred, table, scope)
	case FieldEquals:
		v.checkField(pred.Left, "", scope)
		v.checkField(pred.Right, "", scope)
	case *FieldEquals:
		v.validatePredicate(*pred, table, scope)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, table, scope)
		}
	case *And:
		v.validatePredicate(*pred, table, scope)
	default:
		v.addError("unknown predicate type %T", p)
	}
}

func (v *validator) checkField(field, table string, scope []string) {
	if qualifier, column, ok := strings.Cut(field, "."); ok {
		if !slices.Contains(scope, qualifier) {
			v.addError("field %q references table %s outside the query", field, qualifier)
			return
		}
		v.checkColumn(qualifier, column)
		return
	}
	if table == "" {
		v.addError("field %q must be qualified", field)
		return
	}
	v.checkColumn(table, field)
}

func (v *validator) checkColumn(table, column string) {
	if !slices.Contains(v.schema[table], column) {
		v.addError("unknown column %s.%s", table, column)
	}
}

func (v *validator) checkScalar(field string, value ir.IRValue) {
	switch value.(type) {
	case ir.IRString, ir.IRInt, ir.IRBool:
	default:
		v.addError("field %q compared to non-scalar %T", field, value)
	}
}

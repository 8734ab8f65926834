// Package filter builds typed query conditions for list endpoints. The
// operator set is closed: unsupported operators are rejected when a
// condition is constructed, not when the query runs.
package filter

import (
	"fmt"

	"gorm.io/gorm"
)

// Operator is one of the supported comparison operators.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpIn  Operator = "in"
)

var sqlOperators = map[Operator]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
	OpIn:  "IN",
}

// Condition is a single field comparison. Build it with New; the zero value
// is not usable.
type Condition struct {
	column string
	op     Operator
	value  interface{}
}

// New constructs a condition over an allow-listed column. The columns map
// translates external field names to database columns; names outside it and
// operators outside the closed set are rejected.
func New(field string, op Operator, value interface{}, columns map[string]string) (Condition, error) {
	column, ok := columns[field]
	if !ok {
		return Condition{}, fmt.Errorf("filter: unknown field %q", field)
	}
	if _, ok := sqlOperators[op]; !ok {
		return Condition{}, fmt.Errorf("filter: unsupported operator %q", op)
	}
	return Condition{column: column, op: op, value: value}, nil
}

// Apply adds the condition to a gorm query.
func (c Condition) Apply(tx *gorm.DB) *gorm.DB {
	switch c.op {
	case OpIn:
		return tx.Where(fmt.Sprintf("%s IN ?", c.column), c.value)
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		return tx.Where(fmt.Sprintf("%s %s ?", c.column, sqlOperators[c.op]), c.value)
	default:
		// New enforces the closed set; reaching this is a bug.
		panic(fmt.Sprintf("filter: unhandled operator %q", c.op))
	}
}

// ApplyAll threads every condition through the query.
func ApplyAll(tx *gorm.DB, conds []Condition) *gorm.DB {
	for _, c := range conds {
		tx = c.Apply(tx)
	}
	return tx
}

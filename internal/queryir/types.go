package queryir

import "github.com/roach88/forgeplan/internal/ir"

// Query is a read over the history tables.
//
// Sealed: only Select and Join implement it.
type Query interface {
	queryNode()
}

// Predicate is a row filter.
//
// Sealed: only Equals, AtMost, FieldEquals and And implement it.
type Predicate interface {
	predicateNode()
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Select reads Columns from one table.
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order>, <key> LIMIT <limit>
//
// Columns must be explicit. The table key is always appended to the order
// so results are deterministic. Limit 0 means no limit.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate // nil = every row
	OrderBy []Order
	Limit   int
}

func (Select) queryNode() {}

// Join is an inner join of two Selects. The columns, order and limit of
// Left shape the result; Right contributes its columns and filter only.
//
//	SELECT l.<columns>, r.<columns> FROM l INNER JOIN r ON <on>
//	WHERE <l.filter> AND <r.filter> ORDER BY <l.order>, <l.key> LIMIT <l.limit>
type Join struct {
	Left  Select
	Right Select
	On    Predicate // required; usually FieldEquals
}

func (Join) queryNode() {}

// Equals is field = value. Value must be a scalar IR value.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// AtMost is field <= value.
type AtMost struct {
	Field string
	Value ir.IRInt
}

func (AtMost) predicateNode() {}

// FieldEquals compares two columns, as in a join condition. Both names are
// qualified ("queries.id").
type FieldEquals struct {
	Left  string
	Right string
}

func (FieldEquals) predicateNode() {}

// And holds when every predicate holds. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Schema lists the columns of each queryable table.
type Schema map[string][]string

// Package querysql compiles history queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/queryir"
)

// SQLCompiler compiles queryir queries to SQL.
//
// Every query ends its ORDER BY with the table key so results are
// deterministic. Values are always bound as ? parameters, never interpolated.
type SQLCompiler struct {
	// Keys are the key columns of each table, used as the final ordering.
	// Tables without an entry fall back to rowid.
	Keys map[string][]string
}

// NewSQLCompiler returns a compiler ordering each table by keys.
func NewSQLCompiler(keys map[string][]string) *SQLCompiler {
	if keys == nil {
		keys = map[string][]string{}
	}
	return &SQLCompiler{Keys: keys}
}

// Compile converts q to SQL and its parameters.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Join:
		return c.compileJoin(query)
	case *queryir.Join:
		return c.compileJoin(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("select from %s: no columns", q.From)
	}

	var b strings.Builder
	var params []any
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(q.Columns, ", "), q.From)

	if q.Filter != nil {
		where, whereParams, err := c.compilePredicate(q.Filter, "")
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE " + where)
		params = append(params, whereParams...)
	}

	b.WriteString(" ORDER BY " + c.orderClause(q, ""))
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

// compileJoin compiles an inner join. Columns and predicate fields of each
// side are qualified with that side's table.
func (c *SQLCompiler) compileJoin(j queryir.Join) (string, []any, error) {
	if j.On == nil {
		return "", nil, fmt.Errorf("join of %s and %s: on predicate is required", j.Left.From, j.Right.From)
	}
	columns := append(qualify(j.Left.From, j.Left.Columns), qualify(j.Right.From, j.Right.Columns)...)
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("join of %s and %s: no columns", j.Left.From, j.Right.From)
	}

	on, params, err := c.compilePredicate(j.On, "")
	if err != nil {
		return "", nil, fmt.Errorf("compile join on: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s INNER JOIN %s ON %s",
		strings.Join(columns, ", "), j.Left.From, j.Right.From, on)

	var where []string
	for _, side := range []queryir.Select{j.Left, j.Right} {
		if side.Filter == nil {
			continue
		}
		sql, sideParams, err := c.compilePredicate(side.Filter, side.From)
		if err != nil {
			return "", nil, fmt.Errorf("compile %s filter: %w", side.From, err)
		}
		where = append(where, sql)
		params = append(params, sideParams...)
	}
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	b.WriteString(" ORDER BY " + c.orderClause(j.Left, j.Left.From))
	if j.Left.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, j.Left.Limit)
	}
	return b.String(), params, nil
}

// orderClause returns the requested order followed by the table key.
// COLLATE BINARY keeps text ordering identical across SQLite builds.
func (c *SQLCompiler) orderClause(q queryir.Select, table string) string {
	var parts []string
	for _, o := range q.OrderBy {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", qualifyOne(table, o.Column), dir))
	}
	keys, ok := c.Keys[q.From]
	if !ok {
		keys = []string{"rowid"}
	}
	for _, k := range keys {
		parts = append(parts, qualifyOne(table, k)+" ASC COLLATE BINARY")
	}
	return strings.Join(parts, ", ")
}

// compilePredicate compiles p. When table is set, unqualified fields are
// prefixed with it.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate, table string) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		param, err := irValueToParam(pred.Value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", pred.Field, err)
		}
		return qualifyOne(table, pred.Field) + " = ?", []any{param}, nil
	case *queryir.Equals:
		return c.compilePredicate(*pred, table)
	case queryir.AtMost:
		return qualifyOne(table, pred.Field) + " <= ?", []any{int64(pred.Value)}, nil
	case *queryir.AtMost:
		return c.compilePredicate(*pred, table)
	case queryir.FieldEquals:
		return pred.Left + " = " + pred.Right, nil, nil
	case *queryir.FieldEquals:
		return c.compilePredicate(*pred, table)
	case queryir.And:
		return c.compileAnd(pred, table)
	case *queryir.And:
		return c.compileAnd(*pred, table)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileAnd(and queryir.And, table string) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred, table)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func qualify(table string, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = qualifyOne(table, col)
	}
	return out
}

func qualifyOne(table, field string) string {
	if table == "" || strings.Contains(field, ".") {
		return field
	}
	return table + "." + field
}

// irValueToParam converts a scalar IR value to a driver parameter.
// Booleans become 0/1, matching how the store writes them.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

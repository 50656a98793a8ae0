package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/queryir"
)

var keys = map[string][]string{
	"queries":     {"id"},
	"query_plans": {"query_id", "rank"},
}

func TestCompile_Select(t *testing.T) {
	tests := []struct {
		name   string
		query  queryir.Query
		sql    string
		params []any
	}{
		{
			name:  "no filter",
			query: queryir.Select{From: "queries", Columns: []string{"id", "seq"}},
			sql:   "SELECT id, seq FROM queries ORDER BY id ASC COLLATE BINARY",
		},
		{
			name: "equals",
			query: &queryir.Select{
				From:    "queries",
				Columns: []string{"id"},
				Filter:  queryir.Equals{Field: "catalog", Value: ir.IRString("workshop")},
			},
			sql:    "SELECT id FROM queries WHERE catalog = ? ORDER BY id ASC COLLATE BINARY",
			params: []any{"workshop"},
		},
		{
			name: "and with order and limit",
			query: queryir.Select{
				From:    "queries",
				Columns: []string{"id"},
				Filter: queryir.And{Predicates: []queryir.Predicate{
					queryir.Equals{Field: "mode", Value: ir.IRString("all")},
					&queryir.Equals{Field: "deduplicate", Value: ir.IRBool(true)},
					queryir.AtMost{Field: "budget_used", Value: 10},
				}},
				OrderBy: []queryir.Order{{Column: "seq", Desc: true}},
				Limit:   5,
			},
			sql:    "SELECT id FROM queries WHERE mode = ? AND deduplicate = ? AND budget_used <= ? ORDER BY seq DESC, id ASC COLLATE BINARY LIMIT ?",
			params: []any{"all", int64(1), int64(10), 5},
		},
		{
			name: "empty and",
			query: queryir.Select{
				From:    "queries",
				Columns: []string{"id"},
				Filter:  queryir.And{},
			},
			sql: "SELECT id FROM queries WHERE 1 = 1 ORDER BY id ASC COLLATE BINARY",
		},
		{
			name: "nested and is parenthesised",
			query: queryir.Select{
				From:    "queries",
				Columns: []string{"id"},
				Filter: queryir.And{Predicates: []queryir.Predicate{
					queryir.Equals{Field: "mode", Value: ir.IRString("best")},
					queryir.And{Predicates: []queryir.Predicate{
						queryir.Equals{Field: "max_depth", Value: ir.IRInt(16)},
					}},
				}},
			},
			sql:    "SELECT id FROM queries WHERE mode = ? AND (max_depth = ?) ORDER BY id ASC COLLATE BINARY",
			params: []any{"best", int64(16)},
		},
		{
			name:  "table without key",
			query: queryir.Select{From: "catalogs", Columns: []string{"name"}},
			sql:   "SELECT name FROM catalogs ORDER BY rowid ASC COLLATE BINARY",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler(keys).Compile(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompile_ValuesAreNeverInterpolated(t *testing.T) {
	query := queryir.Select{
		From:    "queries",
		Columns: []string{"id"},
		Filter:  queryir.Equals{Field: "catalog", Value: ir.IRString("x' OR '1'='1")},
	}
	sql, params, err := NewSQLCompiler(keys).Compile(query)
	require.NoError(t, err)
	assert.NotContains(t, sql, "OR")
	assert.Equal(t, []any{"x' OR '1'='1"}, params)
}

func TestCompile_Join(t *testing.T) {
	query := queryir.Join{
		Left: queryir.Select{
			From:    "queries",
			Columns: []string{"id", "seq"},
			Filter:  queryir.Equals{Field: "catalog", Value: ir.IRString("workshop")},
			OrderBy: []queryir.Order{{Column: "seq", Desc: true}},
			Limit:   3,
		},
		Right: queryir.Select{
			From: "query_plans",
			Filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "rank", Value: ir.IRInt(0)},
				queryir.AtMost{Field: "cost", Value: 6},
			}},
		},
		On: queryir.FieldEquals{Left: "queries.id", Right: "query_plans.query_id"},
	}

	sql, params, err := NewSQLCompiler(keys).Compile(&query)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT queries.id, queries.seq FROM queries INNER JOIN query_plans ON queries.id = query_plans.query_id"+
			" WHERE queries.catalog = ? AND query_plans.rank = ? AND query_plans.cost <= ?"+
			" ORDER BY queries.seq DESC, queries.id ASC COLLATE BINARY LIMIT ?",
		sql)
	assert.Equal(t, []any{"workshop", int64(0), int64(6), 3}, params)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{"nil query", nil, "nil query"},
		{"no columns", queryir.Select{From: "queries"}, "no columns"},
		{
			"array value",
			queryir.Select{
				From:    "queries",
				Columns: []string{"id"},
				Filter:  queryir.Equals{Field: "targets", Value: ir.IRArray{ir.IRString("ID:coal")}},
			},
			"unsupported value type",
		},
		{
			"join without on",
			queryir.Join{
				Left:  queryir.Select{From: "queries", Columns: []string{"id"}},
				Right: queryir.Select{From: "query_plans"},
			},
			"on predicate is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler(keys).Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// Package queryir is the abstract form of reads over the plan history.
//
// History filters (catalog, target, mode, best plan cost) are built as a
// small relational tree and compiled to SQL by package querysql, so the
// store never splices user input into SQL text:
//
//	[history flags] → [queryir.Select / Join] → [querysql] → SQLite
//
// The fragment is narrow:
//   - Select(from, columns, filter, order, limit) over one table
//   - Join(left, right, on) as an inner equi-join of two Selects
//   - predicates Equals, AtMost, FieldEquals and And
//
// There are no NULLs, OR predicates, aggregations or subqueries. Query and
// Predicate are sealed with marker methods so backends can switch over them
// exhaustively.
//
// Validate checks a query against a Schema before it is compiled: unknown
// tables or columns are reported instead of surfacing as SQLite errors.
package queryir

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/queryir"
	"github.com/roach88/forgeplan/internal/querysql"
)

// QueryRecord is one planning query in the history log.
// Seq is assigned by RecordQuery; callers leave it zero.
type QueryRecord struct {
	ID            string       `json:"id"`
	Seq           int64        `json:"seq"`
	Catalog       string       `json:"catalog"`
	Target        ir.Matcher   `json:"target"`
	Targets       []ir.Matcher `json:"targets"`
	Available     []ir.Matcher `json:"available"`
	Mode          string       `json:"mode"`
	MaxDepth      int          `json:"max_depth"`
	MaxPlans      int          `json:"max_plans"`
	Deduplicate   bool         `json:"deduplicate"`
	BudgetUsed    int          `json:"budget_used"`
	EngineVersion string       `json:"engine_version"`
	IRVersion     string       `json:"ir_version"`
}

// StoredPlan is a ranked plan as persisted. Tree is the canonical JSON of
// the plan; plans are not rebuilt into ir.Plan values because their recipes
// may no longer exist in the catalog.
type StoredPlan struct {
	Rank      int      `json:"rank"`
	Target    string   `json:"target"`
	Cost      int64    `json:"cost"`
	Feasible  bool     `json:"feasible"`
	Signature string   `json:"signature"`
	Digest    string   `json:"digest"`
	Steps     []string `json:"steps"`
	Tree      string   `json:"tree"`
}

// RecordQuery appends a query and its plans, in rank order, to the history.
// Uses ON CONFLICT(id) DO NOTHING: re-recording an existing id is a no-op
// and leaves the stored plans untouched.
func (s *Store) RecordQuery(ctx context.Context, rec QueryRecord, plans []ir.Plan) error {
	if rec.ID == "" {
		return errors.New("record query: id is required")
	}
	if rec.Target.IsZero() {
		return fmt.Errorf("record query %s: target is unset", rec.ID)
	}
	if rec.EngineVersion == "" {
		rec.EngineVersion = ir.EngineVersion
	}
	if rec.IRVersion == "" {
		rec.IRVersion = ir.IRVersion
	}

	target, err := marshalMatcher(rec.Target)
	if err != nil {
		return fmt.Errorf("record query %s: %w", rec.ID, err)
	}
	targets, err := marshalMatchers(rec.Targets)
	if err != nil {
		return fmt.Errorf("record query %s: %w", rec.ID, err)
	}
	available, err := marshalMatchers(rec.Available)
	if err != nil {
		return fmt.Errorf("record query %s: %w", rec.ID, err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO queries
			(id, seq, catalog, target, targets, available, mode, max_depth, max_plans,
			 deduplicate, budget_used, engine_version, ir_version)
			VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM queries), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			rec.ID, rec.Catalog, target, targets, available, rec.Mode,
			rec.MaxDepth, rec.MaxPlans, boolToInt(rec.Deduplicate), rec.BudgetUsed,
			rec.EngineVersion, rec.IRVersion,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}
		for rank, p := range plans {
			if err := insertPlan(ctx, tx, rec.ID, rank, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record query %s: %w", rec.ID, err)
	}
	return nil
}

func insertPlan(ctx context.Context, tx *sql.Tx, queryID string, rank int, p ir.Plan) error {
	tree, digest, err := marshalPlan(p)
	if err != nil {
		return fmt.Errorf("plan %d: %w", rank, err)
	}
	steps, err := marshalStrings(p.StepIDs())
	if err != nil {
		return fmt.Errorf("plan %d: %w", rank, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO query_plans
		(query_id, rank, target, cost, feasible, signature, digest, steps, tree)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, queryID, rank, p.Target.Key(), p.Cost, boolToInt(p.Feasible), p.Signature(), digest, steps, tree)
	if err != nil {
		return fmt.Errorf("insert plan %d: %w", rank, err)
	}
	return nil
}

// queryColumns are the queries columns in scanQuery order.
var queryColumns = []string{
	"id", "seq", "catalog", "target", "targets", "available", "mode", "max_depth", "max_plans",
	"deduplicate", "budget_used", "engine_version", "ir_version",
}

// historySchema is what history filters may reference.
var historySchema = queryir.Schema{
	"queries":     queryColumns,
	"query_plans": {"query_id", "rank", "target", "cost", "feasible", "signature", "digest", "steps", "tree"},
}

var historyKeys = map[string][]string{
	"queries":     {"id"},
	"query_plans": {"query_id", "rank"},
}

// QueryFilter selects recorded queries. Zero fields match everything.
type QueryFilter struct {
	Catalog string
	Target  ir.Matcher // compared by key
	Mode    string     // as recorded: "best", "all", "topk(3)"

	// MaxCost keeps queries whose best plan costs at most *MaxCost.
	// Queries without a plan never match.
	MaxCost *int64

	// Limit caps the result, newest first. <= 0 returns every match.
	Limit int
}

// query builds the history read for f.
func (f QueryFilter) query() (queryir.Query, error) {
	var preds []queryir.Predicate
	if f.Catalog != "" {
		preds = append(preds, queryir.Equals{Field: "catalog", Value: ir.IRString(f.Catalog)})
	}
	if !f.Target.IsZero() {
		target, err := marshalMatcher(f.Target)
		if err != nil {
			return nil, err
		}
		preds = append(preds, queryir.Equals{Field: "target", Value: ir.IRString(target)})
	}
	if f.Mode != "" {
		preds = append(preds, queryir.Equals{Field: "mode", Value: ir.IRString(f.Mode)})
	}

	sel := queryir.Select{
		From:    "queries",
		Columns: queryColumns,
		OrderBy: []queryir.Order{{Column: "seq", Desc: true}},
		Limit:   max(f.Limit, 0),
	}
	if len(preds) > 0 {
		sel.Filter = queryir.And{Predicates: preds}
	}
	if f.MaxCost == nil {
		return sel, nil
	}
	return queryir.Join{
		Left: sel,
		Right: queryir.Select{
			From: "query_plans",
			Filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "rank", Value: ir.IRInt(0)},
				queryir.AtMost{Field: "cost", Value: ir.IRInt(*f.MaxCost)},
			}},
		},
		On: queryir.FieldEquals{Left: "queries.id", Right: "query_plans.query_id"},
	}, nil
}

// compileHistory validates q and compiles it to SQL.
func compileHistory(q queryir.Query) (string, []any, error) {
	if res := queryir.Validate(q, historySchema); !res.Valid {
		return "", nil, fmt.Errorf("invalid history query: %s", strings.Join(res.Errors, "; "))
	}
	return querysql.NewSQLCompiler(historyKeys).Compile(q)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuery(row scanner) (QueryRecord, error) {
	var rec QueryRecord
	var target, targets, available string
	var dedup int
	if err := row.Scan(
		&rec.ID, &rec.Seq, &rec.Catalog, &target, &targets, &available, &rec.Mode,
		&rec.MaxDepth, &rec.MaxPlans, &dedup, &rec.BudgetUsed, &rec.EngineVersion, &rec.IRVersion,
	); err != nil {
		return QueryRecord{}, err
	}
	rec.Deduplicate = dedup != 0

	var err error
	if rec.Target, err = unmarshalMatcher(target); err != nil {
		return QueryRecord{}, err
	}
	if rec.Targets, err = unmarshalMatchers(targets); err != nil {
		return QueryRecord{}, err
	}
	if rec.Available, err = unmarshalMatchers(available); err != nil {
		return QueryRecord{}, err
	}
	return rec, nil
}

// ReadQuery returns a recorded query and its plans in rank order.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadQuery(ctx context.Context, id string) (QueryRecord, []StoredPlan, error) {
	query, args, err := compileHistory(queryir.Select{
		From:    "queries",
		Columns: queryColumns,
		Filter:  queryir.Equals{Field: "id", Value: ir.IRString(id)},
	})
	if err != nil {
		return QueryRecord{}, nil, fmt.Errorf("read query %s: %w", id, err)
	}
	rec, err := scanQuery(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return QueryRecord{}, nil, fmt.Errorf("read query %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, target, cost, feasible, signature, digest, steps, tree
		FROM query_plans
		WHERE query_id = ?
		ORDER BY rank ASC
	`, id)
	if err != nil {
		return QueryRecord{}, nil, fmt.Errorf("read plans of %s: %w", id, err)
	}
	defer rows.Close()

	plans := []StoredPlan{}
	for rows.Next() {
		var p StoredPlan
		var feasible int
		var steps string
		if err := rows.Scan(&p.Rank, &p.Target, &p.Cost, &feasible, &p.Signature, &p.Digest, &steps, &p.Tree); err != nil {
			return QueryRecord{}, nil, fmt.Errorf("scan plan: %w", err)
		}
		p.Feasible = feasible != 0
		if p.Steps, err = unmarshalStrings(steps); err != nil {
			return QueryRecord{}, nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return QueryRecord{}, nil, fmt.Errorf("iterate plans: %w", err)
	}
	return rec, plans, nil
}

// ListQueries returns the most recent queries, newest first.
// limit <= 0 returns every query.
func (s *Store) ListQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	return s.FindQueries(ctx, QueryFilter{Limit: limit})
}

// FindQueries returns the queries matching f, newest first.
func (s *Store) FindQueries(ctx context.Context, f QueryFilter) ([]QueryRecord, error) {
	q, err := f.query()
	if err != nil {
		return nil, fmt.Errorf("find queries: %w", err)
	}
	query, args, err := compileHistory(q)
	if err != nil {
		return nil, fmt.Errorf("find queries: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find queries: %w", err)
	}
	defer rows.Close()

	records := []QueryRecord{}
	for rows.Next() {
		rec, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return records, nil
}

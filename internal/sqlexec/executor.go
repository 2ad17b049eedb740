// Package sqlexec runs agent-issued SQL against a session store in strict
// read-only mode. Every outcome, including rejection, is returned as data.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/logging"
	"github.com/xiaot623/gogo/datachat/internal/policy"
	"github.com/xiaot623/gogo/datachat/internal/schema"
)

// Executor validates and executes single SELECT statements.
type Executor struct {
	policy *policy.Engine
	logger *zap.Logger
}

// New creates an Executor. A nil policy engine skips the policy gate; the
// SELECT prefix check and the read-only handle always apply.
func New(policyEngine *policy.Engine, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Executor{policy: policyEngine, logger: logger}
}

// Run executes query against the store at storePath. It never returns a Go
// error: rejections and engine errors come back as a failed QueryResult.
func (e *Executor) Run(ctx context.Context, storePath, query string) *domain.QueryResult {
	if !hasSelectPrefix(query) {
		e.logger.Info("rejected non-select statement", zap.String("query", logging.Truncate(query, 200)))
		return &domain.QueryResult{Error: domain.InvalidQueryMessage, Query: query}
	}

	if e.policy != nil {
		verdict, err := e.policy.Evaluate(ctx, analyze(query))
		if err != nil {
			e.logger.Error("statement policy evaluation failed", zap.Error(err))
			return &domain.QueryResult{Error: "Query could not be checked against the statement policy.", Query: query}
		}
		if !verdict.Allowed() {
			e.logger.Info("statement blocked by policy",
				zap.String("reason", verdict.Reason),
				zap.String("query", logging.Truncate(query, 200)))
			return &domain.QueryResult{Error: fmt.Sprintf("Query rejected: %s.", verdict.Reason), Query: query}
		}
	}

	start := time.Now()
	res, err := e.query(ctx, storePath, query)
	if err != nil {
		e.logger.Info("query failed", zap.Error(err), zap.Duration("latency", time.Since(start)))
		return &domain.QueryResult{Error: fmt.Sprintf("An SQL error occurred: %v", err), Query: query}
	}
	e.logger.Debug("query executed",
		zap.Int("rows", len(res.Rows)),
		zap.Duration("latency", time.Since(start)))
	return res
}

func (e *Executor) query(ctx context.Context, storePath, query string) (*domain.QueryResult, error) {
	db, err := sql.Open("sqlite3", schema.ReadOnlyDSN(storePath))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &domain.QueryResult{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

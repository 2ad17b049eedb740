package tools

import (
	"context"
	"encoding/json"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/sqlexec"
)

// SQLQueryParameters is the JSON schema of run_sql_query arguments.
const SQLQueryParameters = `{"type":"object","properties":{"sql_query":{"type":"string","minLength":1,"description":"A single read-only SQLite SELECT statement."}},"required":["sql_query"]}`

// SQLQueryTool returns the run_sql_query tool backed by exec.
func SQLQueryTool(exec *sqlexec.Executor) Tool {
	return Tool{
		Name:        domain.SQLQueryToolName,
		Description: "Runs a read-only SQLite SELECT query against the user's uploaded data and returns the rows as JSON.",
		Kind:        domain.ToolKindSQLQuery,
		Parameters:  json.RawMessage(SQLQueryParameters),
		Exec: func(ctx context.Context, storePath string, inv domain.ToolInvocation) Result {
			result := exec.Run(ctx, storePath, inv.SQL.SQLQuery)
			return Result{Output: result.JSON(), Failed: result.Failed()}
		},
	}
}

// RegisterBuiltins registers the tools every session gets.
func RegisterBuiltins(r *Registry, exec *sqlexec.Executor) error {
	return r.Register(SQLQueryTool(exec))
}

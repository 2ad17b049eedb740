package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/ingest"
	"github.com/xiaot623/gogo/datachat/internal/policy"
	"github.com/xiaot623/gogo/datachat/internal/sqlexec"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r, sqlexec.New(engine, nil)))
	return r
}

func newSalesStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s1.db")
	_, err := ingest.LoadCSV(context.Background(), strings.NewReader("name,amount\nAlice,10\nBob,20\n"), path, "sales")
	require.NoError(t, err)
	return path
}

func TestRegisterRejectsDuplicatesAndBadSchemas(t *testing.T) {
	r := newTestRegistry(t)

	err := RegisterBuiltins(r, sqlexec.New(nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	err = r.Register(Tool{
		Name:       "broken",
		Parameters: json.RawMessage(`{"type":`),
		Exec:       func(context.Context, string, domain.ToolInvocation) Result { return Result{} },
	})
	require.Error(t, err)

	assert.Error(t, r.Register(Tool{Name: "noexec", Parameters: json.RawMessage(`{}`)}))
	assert.Panics(t, func() { r.MustRegister(Tool{}) })
}

func TestDefinitions(t *testing.T) {
	defs := newTestRegistry(t).Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, domain.SQLQueryToolName, defs[0].Function.Name)
	assert.NotEmpty(t, defs[0].Function.Description)
	assert.JSONEq(t, SQLQueryParameters, string(defs[0].Function.Parameters))
}

func TestParse(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		call    domain.PendingToolCall
		kind    domain.ToolKind
		sql     string
		errPart string
	}{
		{
			name: "valid query",
			call: domain.PendingToolCall{ID: "c1", Name: "run_sql_query", Arguments: `{"sql_query":"SELECT 1"}`},
			kind: domain.ToolKindSQLQuery,
			sql:  "SELECT 1",
		},
		{
			name:    "unknown tool",
			call:    domain.PendingToolCall{ID: "c2", Name: "delete_everything", Arguments: `{}`},
			kind:    domain.ToolKindUnknown,
			errPart: "available tools: run_sql_query",
		},
		{
			name:    "missing argument",
			call:    domain.PendingToolCall{ID: "c3", Name: "run_sql_query", Arguments: `{}`},
			kind:    domain.ToolKindInvalid,
			errPart: "sql_query",
		},
		{
			name:    "empty arguments",
			call:    domain.PendingToolCall{ID: "c4", Name: "run_sql_query"},
			kind:    domain.ToolKindInvalid,
			errPart: "sql_query",
		},
		{
			name:    "wrong type",
			call:    domain.PendingToolCall{ID: "c5", Name: "run_sql_query", Arguments: `{"sql_query":42}`},
			kind:    domain.ToolKindInvalid,
			errPart: "sql_query",
		},
		{
			name: "malformed json",
			call: domain.PendingToolCall{ID: "c6", Name: "run_sql_query", Arguments: `{"sql_query":`},
			kind: domain.ToolKindInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := r.Parse(tt.call)
			assert.Equal(t, tt.call.ID, inv.CallID)
			assert.Equal(t, tt.kind, inv.Kind)
			if tt.kind == domain.ToolKindSQLQuery {
				require.NoError(t, inv.Err)
				require.NotNil(t, inv.SQL)
				assert.Equal(t, tt.sql, inv.SQL.SQLQuery)
				return
			}
			require.Error(t, inv.Err)
			assert.Nil(t, inv.SQL)
			if tt.errPart != "" {
				assert.Contains(t, inv.Err.Error(), tt.errPart)
			}
		})
	}
}

func TestExecuteRunsQuery(t *testing.T) {
	r := newTestRegistry(t)
	path := newSalesStore(t)

	inv := r.Parse(domain.PendingToolCall{ID: "c1", Name: "run_sql_query", Arguments: `{"sql_query":"SELECT SUM(amount) AS total FROM sales"}`})
	out := r.Execute(context.Background(), path, inv)
	assert.Equal(t, "c1", out.ToolCallID)
	assert.JSONEq(t, `[{"total":30}]`, out.Output)
	assert.False(t, out.Failed)
}

func TestExecuteColumnNamedErrorIsNotAFailure(t *testing.T) {
	r := newTestRegistry(t)
	path := newSalesStore(t)

	inv := r.Parse(domain.PendingToolCall{ID: "c1", Name: "run_sql_query", Arguments: `{"sql_query":"SELECT 'x' AS error"}`})
	out := r.Execute(context.Background(), path, inv)
	assert.JSONEq(t, `[{"error":"x"}]`, out.Output)
	assert.False(t, out.Failed)
}

func TestExecuteRelaysRejectionAsData(t *testing.T) {
	r := newTestRegistry(t)
	path := newSalesStore(t)

	inv := r.Parse(domain.PendingToolCall{ID: "c1", Name: "run_sql_query", Arguments: `{"sql_query":"DROP TABLE sales"}`})
	out := r.Execute(context.Background(), path, inv)
	assert.JSONEq(t, `[{"error":"Invalid query. Only SELECT statements are permitted.","query_attempted":"DROP TABLE sales"}]`, out.Output)
	assert.True(t, out.Failed)
}

func TestExecuteUnknownToolYieldsErrorOutput(t *testing.T) {
	r := newTestRegistry(t)

	inv := r.Parse(domain.PendingToolCall{ID: "c9", Name: "send_email", Arguments: `{}`})
	out := r.Execute(context.Background(), "unused.db", inv)
	assert.Equal(t, "c9", out.ToolCallID)
	assert.True(t, out.Failed)

	var payload []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out.Output), &payload))
	require.Len(t, payload, 1)
	assert.Contains(t, payload[0]["error"], "send_email")
}

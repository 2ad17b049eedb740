package sqlexec

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
)

func newSalesStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s1.db")
	_, err := ingest.LoadCSV(context.Background(), strings.NewReader("name,amount\nAlice,10\nBob,20\n"), path, "sales")
	require.NoError(t, err)
	return path
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	return New(engine, nil)
}

func TestRunSelectReturnsRowsInOrder(t *testing.T) {
	path := newSalesStore(t)
	exec := newTestExecutor(t)

	res := exec.Run(context.Background(), path, "SELECT name, amount FROM sales ORDER BY name")
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, []string{"name", "amount"}, res.Columns)
	assert.Equal(t, []map[string]any{
		{"name": "Alice", "amount": "10"},
		{"name": "Bob", "amount": "20"},
	}, res.Rows)
}

func TestRunSumCoercesText(t *testing.T) {
	path := newSalesStore(t)
	exec := newTestExecutor(t)

	res := exec.Run(context.Background(), path, "SELECT SUM(amount) AS total FROM sales")
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, []string{"total"}, res.Columns)
	require.Len(t, res.Rows, 1)
	// SQLite applies numeric affinity inside SUM, so integer-looking text
	// sums to an integer.
	assert.Equal(t, int64(30), res.Rows[0]["total"])
	assert.JSONEq(t, `[{"total":30}]`, res.JSON())
}

func TestRunEmptyResultIsNotAnError(t *testing.T) {
	path := newSalesStore(t)
	exec := newTestExecutor(t)

	res := exec.Run(context.Background(), path, "select * from sales where name = 'Nobody'")
	require.False(t, res.Failed())
	assert.Empty(t, res.Rows)
	assert.JSONEq(t, `[{"message":"Query executed successfully, but no results were found."}]`, res.JSON())
}

func TestRunRejectsNonSelectWithoutTouchingStore(t *testing.T) {
	exec := newTestExecutor(t)
	missing := filepath.Join(t.TempDir(), "never.db")

	for _, q := range []string{"DROP TABLE x", "  delete from sales", "WITH t AS (SELECT 1) SELECT * FROM t", "", "UPDATE sales SET amount = 0"} {
		res := exec.Run(context.Background(), missing, q)
		require.True(t, res.Failed(), q)
		assert.Equal(t, domain.InvalidQueryMessage, res.Error)
		assert.Equal(t, q, res.Query)
	}
	assert.NoFileExists(t, missing)
}

func TestRunDropLeavesTableIntact(t *testing.T) {
	path := newSalesStore(t)
	exec := newTestExecutor(t)

	res := exec.Run(context.Background(), path, "DROP TABLE sales")
	require.True(t, res.Failed())

	var payload []map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.JSON()), &payload))
	require.Len(t, payload, 1)
	assert.True(t, strings.HasPrefix(payload[0]["error"], "Invalid query"))
	assert.Equal(t, "DROP TABLE sales", payload[0]["query_attempted"])

	after := exec.Run(context.Background(), path, "SELECT COUNT(*) AS n FROM sales")
	require.False(t, after.Failed(), after.Error)
	assert.Equal(t, int64(2), after.Rows[0]["n"])
}

func TestRunPolicyBlocksStackedStatements(t *testing.T) {
	path := newSalesStore(t)
	exec := newTestExecutor(t)

	res := exec.Run(context.Background(), path, "SELECT 1; DROP TABLE sales")
	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "multiple statements")

	after := exec.Run(context.Background(), path, "SELECT COUNT(*) AS n FROM sales")
	require.False(t, after.Failed())
}

func TestRunReadOnlyHandleStopsWritesPastThePrefixCheck(t *testing.T) {
	path := newSalesStore(t)
	exec := New(nil, nil) // prefix check and read-only handle only

	res := exec.Run(context.Background(), path, "SELECT 1; DELETE FROM sales")
	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "An SQL error occurred")

	after := exec.Run(context.Background(), path, "SELECT COUNT(*) AS n FROM sales")
	require.False(t, after.Failed())
	assert.Equal(t, int64(2), after.Rows[0]["n"])
}

func TestRunReportsEngineErrorsAsData(t *testing.T) {
	path := newSalesStore(t)
	exec := newTestExecutor(t)

	res := exec.Run(context.Background(), path, "SELECT missing_column FROM sales")
	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "An SQL error occurred")
	assert.Contains(t, res.Error, "missing_column")
	assert.Equal(t, "SELECT missing_column FROM sales", res.Query)

	res = exec.Run(context.Background(), path, "SELECT * FROM nowhere")
	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "no such table")
}

func TestRunMissingStore(t *testing.T) {
	exec := newTestExecutor(t)
	missing := filepath.Join(t.TempDir(), "gone.db")

	res := exec.Run(context.Background(), missing, "SELECT 1")
	require.True(t, res.Failed())
	assert.NotContains(t, res.Error, missing)
	assert.NoFileExists(t, missing)
}

package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"name":           "name",
		"first name":     "first_name",
		"  Unit  Price ": "Unit_Price",
		"amount ($)":     "amount_",
		"total-revenue%": "totalrevenue",
		"order_id":       "order_id",
		"%%%":            FallbackColumnName,
		"":               FallbackColumnName,
		"客户":             FallbackColumnName,
		"Q1\t2024 Sales": "Q1_2024_Sales",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in), "Sanitize(%q)", in)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	for _, in := range []string{"first name", "a-b c", "", "!!", "Total ($)", "x_1"} {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "sales", TableName("sales.csv"))
	assert.Equal(t, "sales", TableName("sales.2024.csv"))
	assert.Equal(t, "q1_report", TableName("/tmp/uploads/q1 report.csv"))
	assert.Equal(t, "ledger", TableName(`C:\Users\me\ledger.csv`))
	assert.Equal(t, FallbackTableName, TableName(".csv"))
	assert.Equal(t, FallbackTableName, TableName("$$$.csv"))
	assert.Equal(t, Sanitize(" my  data! "), TableName(" my  data! .csv"))
}

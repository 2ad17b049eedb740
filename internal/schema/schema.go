// Package schema renders the catalog of a session store as LLM context.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultTableName is reported by FirstTable when no user table can be named.
const DefaultTableName = "financial_data"

const header = "The user has provided a database with the following schema:\n"

// Column is one column of a user table.
type Column struct {
	Name string
	Type string
}

// Table is one non-system table.
type Table struct {
	Name    string
	Columns []Column
}

// ReadOnlyDSN is the DSN every non-ingestion open of a store goes through.
func ReadOnlyDSN(storePath string) string {
	return fmt.Sprintf("file:%s?mode=ro", storePath)
}

// Inspect lists every non-system table of the store with its columns.
func Inspect(ctx context.Context, storePath string) ([]Table, error) {
	db, err := sql.Open("sqlite3", ReadOnlyDSN(storePath))
	if err != nil {
		return nil, fmt.Errorf("could not analyze the database schema: %w", err)
	}
	defer db.Close()

	names, err := tableNames(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("could not analyze the database schema: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		cols, err := tableColumns(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("could not analyze the database schema: %w", err)
		}
		tables = append(tables, Table{Name: name, Columns: cols})
	}
	return tables, nil
}

// Describe returns a CREATE-TABLE-like description of every user table.
func Describe(ctx context.Context, storePath string) (string, error) {
	tables, err := Inspect(ctx, storePath)
	if err != nil {
		return "", err
	}
	return Render(tables), nil
}

// Render formats tables the way Describe does.
func Render(tables []Table) string {
	var b strings.Builder
	b.WriteString(header)
	for _, t := range tables {
		fmt.Fprintf(&b, "\nCREATE TABLE `%s` (\n", t.Name)
		for i, col := range t.Columns {
			b.WriteString(fmt.Sprintf("  `%s` %s", col.Name, col.Type))
			if i < len(t.Columns)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(");\n")
	}
	return b.String()
}

// FirstTable returns the first user table of the store, or DefaultTableName
// if the store has none or cannot be read.
func FirstTable(ctx context.Context, storePath string) string {
	db, err := sql.Open("sqlite3", ReadOnlyDSN(storePath))
	if err != nil {
		return DefaultTableName
	}
	defer db.Close()

	names, err := tableNames(ctx, db)
	if err != nil || len(names) == 0 {
		return DefaultTableName
	}
	return names[0]
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(`%s`)", strings.ReplaceAll(table, "`", "``")))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name, Type: ctype})
	}
	return cols, rows.Err()
}

package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Tx is the minimal query executor shared by pgx.Tx and *pgxpool.Pool.
// Repositories resolve one from the request context; whether it is a real
// transaction depends on the caller.
type Tx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Join concatenates non-empty SQL fragments with a single space.
func Join(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			filtered = append(filtered, p)
		}
	}
	return strings.Join(filtered, " ")
}

// JoinWhere builds a WHERE clause from the given conditions.
// Returns an empty string when there are none.
func JoinWhere(conditions ...string) string {
	filtered := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if strings.TrimSpace(c) != "" {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(filtered, " AND ")
}

// Insert builds an INSERT statement with positional placeholders for the
// given fields, optionally appending a RETURNING clause.
func Insert(table string, fields []string, returning ...string) string {
	placeholders := make([]string, len(fields))
	for i := range fields {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
	)
	if len(returning) > 0 {
		q += " RETURNING " + strings.Join(returning, ", ")
	}
	return q
}

// Update builds an UPDATE statement assigning positional placeholders to
// the given fields, with the caller-supplied predicate appended as-is.
func Update(table string, fields []string, where string) string {
	assignments := make([]string, len(fields))
	for i, f := range fields {
		assignments[i] = fmt.Sprintf("%s = $%d", f, i+1)
	}
	q := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(assignments, ", "))
	if where != "" {
		q += " WHERE " + where
	}
	return q
}

// Exists wraps a query in SELECT EXISTS.
func Exists(query string) string {
	return fmt.Sprintf("SELECT EXISTS (%s)", query)
}

// FormatLimitOffset returns a LIMIT/OFFSET fragment, omitting the parts
// that are not positive.
func FormatLimitOffset(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf("OFFSET %d", offset)
	}
	return ""
}

// BatchInsertQueryN expands a "INSERT INTO t (a, b) VALUES" prefix with one
// placeholder tuple per row and returns the flattened argument list.
func BatchInsertQueryN(prefix string, rows [][]any) (string, []any) {
	if len(rows) == 0 {
		return prefix, nil
	}
	width := len(rows[0])
	tuples := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*width)
	for i, row := range rows {
		placeholders := make([]string, width)
		for j := range row {
			placeholders[j] = fmt.Sprintf("$%d", i*width+j+1)
		}
		tuples = append(tuples, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, row...)
	}
	return prefix + " " + strings.Join(tuples, ", "), args
}

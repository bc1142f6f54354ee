package stmtpool

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type copyFromFunc func(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error)

// CopyInStatement is a one-shot bulk load into a single table. It bypasses
// the statement cache: copy statements are parameterized by table and
// columns rather than by values, so there is nothing to reuse. The table
// name is treated as one unqualified identifier.
type CopyInStatement struct {
	table   pgx.Identifier
	columns []string
	copyFn  copyFromFunc
}

func newCopyInStatement(table string, columns []string, copyFn copyFromFunc) *CopyInStatement {
	return &CopyInStatement{
		table:   pgx.Identifier{table},
		columns: columns,
		copyFn:  copyFn,
	}
}

// Exec streams rows into the table and returns the number of rows copied.
func (s *CopyInStatement) Exec(ctx context.Context, rows pgx.CopyFromSource) (int64, error) {
	n, err := s.copyFn(ctx, s.table, s.columns, rows)
	if err != nil {
		return n, opErr(err)
	}
	return n, nil
}

// ExecRows is a convenience for loading an in-memory row set.
func (s *CopyInStatement) ExecRows(ctx context.Context, rows [][]any) (int64, error) {
	return s.Exec(ctx, pgx.CopyFromRows(rows))
}

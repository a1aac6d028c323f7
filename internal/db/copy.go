package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using the COPY protocol. A short
// count is reported as an error so callers can treat the chunk as failed.
func CopyFrom(ctx context.Context, c Copier, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := c.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	if n != int64(len(rows)) {
		return n, eris.Errorf("db: COPY INTO %s: wrote %d of %d rows", table, n, len(rows))
	}
	return n, nil
}

// CopyStructs converts items to COPY rows with fn and inserts them.
func CopyStructs[T any](ctx context.Context, c Copier, table string, columns []string, items []T, fn func(T) []any) (int64, error) {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, fn(it))
	}
	return CopyFrom(ctx, c, table, columns, rows)
}

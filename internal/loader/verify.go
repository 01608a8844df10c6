package loader

import (
	"context"
	"fmt"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// CountStatement returns the verification query for a table.
func CountStatement(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
}

// CountRows reads back the number of rows in table.
func CountRows(ctx context.Context, session tpch.Session, table string) (int64, error) {
	var n int64
	if err := session.QueryRow(ctx, CountStatement(table)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

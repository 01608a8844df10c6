// Package report renders query results and run summaries as text.
package report

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

const (
	cellSeparator = " | "
	nullText      = "NULL"
)

// Format renders rs as a header line of column names, at most limit data
// rows, and a closing "Total rows: N" line that always reports
// rs.TotalRows. Every cell is followed by " | ". A negative limit prints
// every materialized row.
func Format(rs tpch.RowSet, limit int) string {
	var sb strings.Builder

	for _, col := range rs.Columns {
		sb.WriteString(col)
		sb.WriteString(cellSeparator)
	}
	sb.WriteString("\n")

	for i, row := range rs.Rows {
		if limit >= 0 && i >= limit {
			break
		}
		for _, v := range row {
			sb.WriteString(FormatValue(v))
			sb.WriteString(cellSeparator)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Total rows: %d", rs.TotalRows)
	return sb.String()
}

// FormatValue renders one cell. Dates without a time of day print as
// YYYY-MM-DD and driver values such as numerics print in their text form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return nullText
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		if _, again := dv.(driver.Valuer); again {
			return fmt.Sprintf("%v", dv)
		}
		return FormatValue(dv)
	default:
		return fmt.Sprintf("%v", v)
	}
}

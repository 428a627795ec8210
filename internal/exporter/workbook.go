package exporter

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type workbookStats struct {
	rows int64
}

// writeWorkbook streams each table into its own sheet and writes the
// finished workbook to w.
func writeWorkbook(ctx context.Context, w io.Writer, src Source, tables []string) (workbookStats, error) {
	var stats workbookStats

	f := excelize.NewFile()
	defer f.Close()

	names := newSheetNamer()
	for i, table := range tables {
		sheet := names.name(table)

		var err error
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), sheet)
		} else {
			_, err = f.NewSheet(sheet)
		}
		if err != nil {
			return stats, fmt.Errorf("create sheet for table %s: %w", table, err)
		}

		n, err := writeSheet(ctx, f, sheet, src, table)
		if err != nil {
			return stats, fmt.Errorf("export table %s: %w", table, err)
		}
		stats.rows += n
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return stats, fmt.Errorf("write workbook: %w", err)
	}
	return stats, nil
}

// writeSheet writes the column names to row 1 and the table's rows below,
// in the order the server returns them. It returns the data row count.
func writeSheet(ctx context.Context, f *excelize.File, sheet string, src Source, table string) (int64, error) {
	rows, err := src.Rows(ctx, table)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return 0, err
	}

	cols := rows.Columns()
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, err
	}

	var n int64
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return n, err
		}

		cell, err := excelize.CoordinatesToCellName(1, int(n)+2)
		if err != nil {
			return n, err
		}
		if err := sw.SetRow(cell, cellValues(values)); err != nil {
			return n, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}

	return n, sw.Flush()
}

// cellValues converts driver values into types excelize writes natively.
func cellValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = cellValue(v)
	}
	return out
}

func cellValue(v any) any {
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		v = dv
	}

	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case sql.RawBytes:
		return string(x)
	case string, bool, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x
	case [16]byte:
		return uuid.UUID(x).String()
	case time.Duration:
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// sheetNamer turns table names into valid, unique worksheet names.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_",
	"*", "_", "[", "_", "]", "_",
)

// name replaces characters worksheets cannot hold, truncates to
// excelize.MaxSheetNameLength runes and appends ~N when the result is
// already taken. Sheet names compare case-insensitively.
func (n *sheetNamer) name(table string) string {
	base := strings.TrimLeft(sheetNameReplacer.Replace(table), "'")
	base = strings.TrimRight(truncateRunes(base, excelize.MaxSheetNameLength), "'")
	if base == "" {
		base = "Sheet"
	}

	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := "~" + strconv.Itoa(i)
		candidate = truncateRunes(base, excelize.MaxSheetNameLength-len(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/marwy1000/mkmsearch/pkg/query"
)

func renderResult(out io.Writer, result *query.Result) {
	if len(result.Rows) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)

	header := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range result.Rows {
		cells := make(table.Row, len(row))
		for i, cell := range row {
			cells[i] = formatCell(result.Columns[i], cell)
		}
		t.AppendRow(cells)
	}

	t.SetStyle(table.StyleRounded)
	t.Render()

	if result.Limited {
		fmt.Fprintln(out, text.FgYellow.Sprintf("Showing the first %d results.", result.Limit))
	}
}

func formatCell(column string, cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "⭐"
		}
		return "❌"
	case time.Time:
		return v.Format("2006-01-02")
	case decimal.Decimal:
		return v.StringFixed(2)
	case int:
		// A zero quantity means the segment carried none.
		if v == 0 && column == query.ColQty {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

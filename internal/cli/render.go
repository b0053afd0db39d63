package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/vectable"
	"github.com/hupe1980/vectable/internal/ui"
	"github.com/hupe1980/vectable/model"
)

func formatValue(v model.Value) string {
	switch v.Kind {
	case model.KindNull:
		return ui.Dim.Render("null")
	case model.KindInt32:
		return strconv.Itoa(int(v.I32))
	case model.KindUtf8:
		return v.Str
	case model.KindVector:
		return ui.FormatVector(v.Vec)
	}
	return v.String()
}

func renderRows(w io.Writer, rows []model.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, ui.Dim.Render("(no rows)"))
		return
	}
	headers := append([]string{"_rowid"}, rows[0].Fields...)
	cells := make([][]string, len(rows))
	for i, r := range rows {
		line := make([]string, 0, len(headers))
		line = append(line, strconv.FormatUint(uint64(r.ID), 10))
		for _, v := range r.Values {
			line = append(line, formatValue(v))
		}
		cells[i] = line
	}
	fmt.Fprintln(w, ui.Table(headers, cells))
}

func renderResults(w io.Writer, results []vectable.Result, withDistance bool) {
	if len(results) == 0 {
		fmt.Fprintln(w, ui.Dim.Render("(no rows)"))
		return
	}
	headers := []string{"_rowid"}
	if withDistance {
		headers = append(headers, "_distance")
	}
	headers = append(headers, results[0].Row.Fields...)

	cells := make([][]string, len(results))
	for i, r := range results {
		line := make([]string, 0, len(headers))
		line = append(line, strconv.FormatUint(uint64(r.RowID), 10))
		if withDistance {
			line = append(line, strconv.FormatFloat(float64(r.Distance), 'g', 6, 32))
		}
		for _, v := range r.Row.Values {
			line = append(line, formatValue(v))
		}
		cells[i] = line
	}
	fmt.Fprintln(w, ui.Table(headers, cells))
}

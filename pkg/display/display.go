// Package display renders frames as fixed-width text tables for terminals
// and logs. Wide frames are rendered in full; long frames are truncated
// head-and-tail around an ellipsis row, pandas-style, so the shape of the
// data stays visible without flooding the terminal.
package display

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/latticedata/lattice/internal/keys"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/metrics"
)

const (
	// DefaultMaxRows is the row budget before head-and-tail truncation.
	DefaultMaxRows = 20
	// DefaultMaxColWidth is the per-cell rune budget before truncation.
	DefaultMaxColWidth = 48

	nullCell     = "null"
	ellipsisCell = "…"
)

// Options configures Render.
type Options struct {
	// MaxRows bounds the rendered data rows, DefaultMaxRows when zero.
	// Negative disables truncation.
	MaxRows int
	// MaxColWidth bounds cell width in runes, DefaultMaxColWidth when zero.
	// Negative disables truncation.
	MaxColWidth int
	// ShowDtypes appends each column's dtype to its header, "price (float64)".
	ShowDtypes bool
	// HideFooter drops the trailing "[N rows x M cols]" line.
	HideFooter bool
}

func (o Options) maxRows() int {
	if o.MaxRows == 0 {
		return DefaultMaxRows
	}
	return o.MaxRows
}

func (o Options) maxColWidth() int {
	if o.MaxColWidth == 0 {
		return DefaultMaxColWidth
	}
	return o.MaxColWidth
}

// Render writes the frame as a text table. Null cells render as "null".
func Render(w io.Writer, f *frame.Frame, opts Options) (err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if f != nil {
			rows = f.RowCount()
		}
		metrics.ObserveOp("display.render", start, rows, err)
	}()

	if f == nil {
		return errors.New(errors.ErrorTypeValidation, "nil frame")
	}

	names := f.Names()
	if len(names) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader(headers(f, opts))
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		table.SetHeaderAlignment(tablewriter.ALIGN_RIGHT)

		head, tail, truncated := rowWindow(f.RowCount(), opts.maxRows())
		for i := 0; i < head; i++ {
			row, err := renderRow(f, i, opts.maxColWidth())
			if err != nil {
				return err
			}
			table.Append(row)
		}
		if truncated {
			ell := make([]string, len(names))
			for i := range ell {
				ell[i] = ellipsisCell
			}
			table.Append(ell)
		}
		for i := f.RowCount() - tail; i < f.RowCount(); i++ {
			row, err := renderRow(f, i, opts.maxColWidth())
			if err != nil {
				return err
			}
			table.Append(row)
		}
		table.Render()
	}

	if !opts.HideFooter {
		if _, err := io.WriteString(w, footer(f)); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "write footer")
		}
	}
	return nil
}

// String renders the frame to a string, suppressing write errors (the
// underlying writer is a builder and cannot fail).
func String(f *frame.Frame, opts Options) string {
	var sb strings.Builder
	if err := Render(&sb, f, opts); err != nil {
		return "<render error: " + err.Error() + ">"
	}
	return sb.String()
}

// rowWindow splits a row budget into head and tail counts. truncated reports
// whether an ellipsis row separates them.
func rowWindow(rows, budget int) (head, tail int, truncated bool) {
	if budget < 0 || rows <= budget {
		return rows, 0, false
	}
	head = (budget + 1) / 2
	tail = budget - head
	return head, tail, true
}

func headers(f *frame.Frame, opts Options) []string {
	names := f.Names()
	if !opts.ShowDtypes {
		return names
	}
	out := make([]string, len(names))
	for i, name := range names {
		col, err := f.Column(name)
		if err != nil {
			out[i] = name
			continue
		}
		out[i] = name + " (" + col.Kind().String() + ")"
	}
	return out
}

func renderRow(f *frame.Frame, i, maxWidth int) ([]string, error) {
	raw, err := f.RawRow(i)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(raw))
	for c, cell := range raw {
		out[c] = renderCell(cell, maxWidth)
	}
	return out, nil
}

func renderCell(v interface{}, maxWidth int) string {
	if v == nil {
		return nullCell
	}
	s := keys.Canonical(v)
	if maxWidth < 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return ellipsisCell
	}
	return string(runes[:maxWidth-1]) + ellipsisCell
}

func footer(f *frame.Frame) string {
	noun := "rows"
	if f.RowCount() == 1 {
		noun = "row"
	}
	return "[" + strconv.Itoa(f.RowCount()) + " " + noun +
		" x " + strconv.Itoa(f.NumCols()) + " cols]\n"
}

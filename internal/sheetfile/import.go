package sheetfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/ctxlog"
	"github.com/vk/cellgrid/internal/fn"
	"github.com/vk/cellgrid/internal/formula"
	"github.com/vk/cellgrid/internal/store"
	"github.com/vk/cellgrid/internal/unit"
	"github.com/vk/cellgrid/internal/value"
)

// ImportXLSX converts the first worksheet of an xlsx file into sheet
// contents. Formulas come across as formula text; numeric cells become
// literals; a trailing "unit" annotation in the cell text ("5 m") is
// honored. Cells that are neither are skipped with a log line, not an
// error, so one stray text cell does not block an import.
func ImportXLSX(ctx context.Context, path string, funcs fn.Table) (*Sheet, error) {
	log := ctxlog.FromContext(ctx)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s contains no worksheets", path)
	}
	name := sheets[0]

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %q: %w", name, err)
	}

	sheet := &Sheet{Name: name, Contents: map[cellref.Ref]store.Content{}}
	for r, row := range rows {
		for c, text := range row {
			if strings.TrimSpace(text) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			ref := cellref.Ref{Col: c, Row: r}

			src, err := f.GetCellFormula(name, axis)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", axis, err)
			}
			if src != "" {
				content := importFormula(src, funcs)
				sheet.Contents[ref] = content
				continue
			}

			lit, ok := importLiteral(text)
			if !ok {
				log.Warn("skipping unsupported cell during import", "cell", axis, "text", text)
				continue
			}
			sheet.Contents[ref] = lit
		}
	}
	return sheet, nil
}

func importFormula(src string, funcs fn.Table) store.Content {
	if !formula.IsFormula(src) {
		src = formula.Prefix + src
	}
	ast, err := formula.Parse(src, funcs.Has)
	if err != nil {
		return store.BrokenFormula(src, value.NewError(value.KindParse, "%v", err))
	}
	return store.Formula(src, ast)
}

func importLiteral(text string) (store.Content, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return store.Content{}, false
	}
	n, err := cty.ParseNumberVal(fields[0])
	if err != nil {
		return store.Content{}, false
	}
	u := unit.Dimensionless
	if len(fields) == 2 {
		u, err = unit.Parse(fields[1])
		if err != nil {
			return store.Content{}, false
		}
	}
	return store.Literal(value.Normalize(n, u)), true
}

package sheetfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/fn"
	"github.com/vk/cellgrid/internal/formula"
	"github.com/vk/cellgrid/internal/store"
	"github.com/vk/cellgrid/internal/unit"
	"github.com/vk/cellgrid/internal/value"
)

// Sheet is a decoded sheet definition.
type Sheet struct {
	Name     string
	Contents map[cellref.Ref]store.Content
}

// Load reads an HCL sheet file. The first sheet block is returned;
// multi-sheet files are rejected because the engine owns one sheet.
// Formula text that fails to parse is kept as broken-formula content,
// matching what typing it into the engine would produce.
func Load(path string, funcs fn.Table) (*Sheet, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	var root sheetFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}
	if len(root.Sheets) == 0 {
		return nil, fmt.Errorf("%s contains no sheet block", path)
	}
	if len(root.Sheets) > 1 {
		return nil, fmt.Errorf("%s contains %d sheet blocks, expected one", path, len(root.Sheets))
	}

	block := root.Sheets[0]
	sheet := &Sheet{Name: block.Name, Contents: make(map[cellref.Ref]store.Content, len(block.Cells))}
	for _, cell := range block.Cells {
		ref, err := cellref.Parse(cell.Ref)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: invalid cell label %q: %w", block.Name, cell.Ref, err)
		}
		if _, dup := sheet.Contents[ref]; dup {
			return nil, fmt.Errorf("sheet %q: cell %s defined twice", block.Name, ref)
		}
		content, err := decodeCell(cell, funcs)
		if err != nil {
			return nil, fmt.Errorf("sheet %q, cell %s: %w", block.Name, ref, err)
		}
		sheet.Contents[ref] = content
	}
	return sheet, nil
}

func decodeCell(cell *cellBlock, funcs fn.Table) (store.Content, error) {
	hasValue := cell.Value != nil
	hasFormula := cell.Formula != ""
	switch {
	case hasValue && hasFormula:
		return store.Content{}, fmt.Errorf("has both value and formula")
	case hasFormula:
		if cell.Unit != "" {
			return store.Content{}, fmt.Errorf("unit is only valid with a value")
		}
		ast, err := formula.Parse(cell.Formula, funcs.Has)
		if err != nil {
			return store.BrokenFormula(cell.Formula, value.NewError(value.KindParse, "%v", err)), nil
		}
		return store.Formula(cell.Formula, ast), nil
	case hasValue:
		if cell.Value.Type() != cty.Number {
			return store.Content{}, fmt.Errorf("value must be a number")
		}
		u := unit.Dimensionless
		if cell.Unit != "" {
			var err error
			u, err = unit.Parse(cell.Unit)
			if err != nil {
				return store.Content{}, fmt.Errorf("invalid unit %q: %w", cell.Unit, err)
			}
		}
		return store.Literal(value.Normalize(*cell.Value, u)), nil
	default:
		return store.Content{}, fmt.Errorf("needs a value or a formula")
	}
}

package sheetfile

import (
	"github.com/zclconf/go-cty/cty"
)

// sheetFile represents the top-level structure of a sheet definition
// file.
type sheetFile struct {
	Sheets []*sheetBlock `hcl:"sheet,block"`
}

// sheetBlock is one named sheet.
type sheetBlock struct {
	Name  string       `hcl:"name,label"`
	Cells []*cellBlock `hcl:"cell,block"`
}

// cellBlock is one cell. A cell carries either a value (with optional
// unit) or a formula, never both.
type cellBlock struct {
	Ref     string     `hcl:"name,label"`
	Value   *cty.Value `hcl:"value,optional"`
	Unit    string     `hcl:"unit,optional"`
	Formula string     `hcl:"formula,optional"`
}

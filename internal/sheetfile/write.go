package sheetfile

import (
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/store"
)

// Write renders a sheet as HCL. Cells appear in ascending order so
// output is stable and diffs cleanly. Literals are written at base
// scale, which is how the engine stores them; "5 km" round-trips as
// "5000 m".
func Write(w io.Writer, name string, contents map[cellref.Ref]store.Content) error {
	refs := make([]cellref.Ref, 0, len(contents))
	for ref := range contents {
		refs = append(refs, ref)
	}
	cellref.Sort(refs)

	file := hclwrite.NewEmptyFile()
	sheet := file.Body().AppendNewBlock("sheet", []string{name}).Body()
	for _, ref := range refs {
		content := contents[ref]
		if content.IsEmpty() {
			continue
		}
		cell := sheet.AppendNewBlock("cell", []string{ref.String()}).Body()
		switch content.Kind {
		case store.ContentLiteral:
			cell.SetAttributeValue("value", content.Lit.Num)
			if symbol := content.Lit.Unit.String(); symbol != "" {
				cell.SetAttributeValue("unit", cty.StringVal(symbol))
			}
		case store.ContentFormula:
			cell.SetAttributeValue("formula", cty.StringVal(content.Raw))
		default:
			return fmt.Errorf("cell %s: unknown content kind %d", ref, content.Kind)
		}
	}

	_, err := file.WriteTo(w)
	return err
}

package sheetfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/fn"
	"github.com/vk/cellgrid/internal/store"
	"github.com/vk/cellgrid/internal/value"
)

func writeTemp(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTemp(t, `
sheet "demo" {
  cell "A1" {
    value = 5
    unit  = "m"
  }
  cell "A2" {
    value = 3
    unit  = "s"
  }
  cell "A3" {
    formula = "=A1/A2"
  }
  cell "B1" {
    value = 2.5
  }
}
`)

	sheet, err := Load(path, fn.Default())
	require.NoError(t, err)

	assert.Equal(t, "demo", sheet.Name)
	require.Len(t, sheet.Contents, 4)

	a1 := sheet.Contents[cellref.MustParse("A1")]
	require.Equal(t, store.ContentLiteral, a1.Kind)
	assert.InDelta(t, 5, a1.Lit.Float(), 1e-12)
	assert.Equal(t, "m", a1.Lit.Unit.String())

	a3 := sheet.Contents[cellref.MustParse("A3")]
	require.Equal(t, store.ContentFormula, a3.Kind)
	require.NotNil(t, a3.Ast)
	assert.Equal(t, []cellref.Ref{cellref.MustParse("A1"), cellref.MustParse("A2")}, a3.Refs)
}

func TestLoadScaledUnitNormalizes(t *testing.T) {
	path := writeTemp(t, `
sheet "s" {
  cell "A1" {
    value = 5
    unit  = "km"
  }
}
`)

	sheet, err := Load(path, fn.Default())
	require.NoError(t, err)

	lit := sheet.Contents[cellref.MustParse("A1")].Lit
	assert.InDelta(t, 5000, lit.Float(), 1e-9)
	assert.Equal(t, "m", lit.Unit.String())
}

func TestLoadBrokenFormulaIsKept(t *testing.T) {
	path := writeTemp(t, `
sheet "s" {
  cell "A1" {
    formula = "=1+"
  }
}
`)

	sheet, err := Load(path, fn.Default())
	require.NoError(t, err)

	content := sheet.Contents[cellref.MustParse("A1")]
	assert.Equal(t, "=1+", content.Raw)
	require.NotNil(t, content.ParseErr)
	assert.Equal(t, value.KindParse, content.ParseErr.Kind)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "no sheet block", src: `value = 1`},
		{name: "two sheets", src: `
sheet "a" {}
sheet "b" {}
`},
		{name: "bad cell label", src: `
sheet "s" {
  cell "1A" { value = 1 }
}
`},
		{name: "duplicate cell", src: `
sheet "s" {
  cell "A1" { value = 1 }
  cell "A1" { value = 2 }
}
`},
		{name: "value and formula", src: `
sheet "s" {
  cell "A1" {
    value   = 1
    formula = "=2"
  }
}
`},
		{name: "neither value nor formula", src: `
sheet "s" {
  cell "A1" {}
}
`},
		{name: "unit without value", src: `
sheet "s" {
  cell "A1" {
    formula = "=2"
    unit    = "m"
  }
}
`},
		{name: "unknown unit", src: `
sheet "s" {
  cell "A1" {
    value = 1
    unit  = "furlong"
  }
}
`},
		{name: "non-numeric value", src: `
sheet "s" {
  cell "A1" { value = "five" }
}
`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tc.src), fn.Default())
			assert.Error(t, err)
		})
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := writeTemp(t, `
sheet "demo" {
  cell "A1" {
    value = 5
    unit  = "m"
  }
  cell "A3" {
    formula = "=A1*2"
  }
}
`)
	sheet, err := Load(path, fn.Default())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sheet.Name, sheet.Contents))

	rewritten := writeTemp(t, buf.String())
	reloaded, err := Load(rewritten, fn.Default())
	require.NoError(t, err)

	require.Len(t, reloaded.Contents, len(sheet.Contents))
	for ref, want := range sheet.Contents {
		got := reloaded.Contents[ref]
		require.Equal(t, want.Kind, got.Kind, ref)
		switch want.Kind {
		case store.ContentLiteral:
			assert.True(t, want.Lit.Equal(got.Lit), ref)
		case store.ContentFormula:
			assert.Equal(t, want.Raw, got.Raw, ref)
		}
	}
}

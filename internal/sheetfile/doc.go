// Package sheetfile reads and writes sheet definitions. The native
// format is HCL:
//
//	sheet "demo" {
//	  cell "A1" { value = 5  unit = "m" }
//	  cell "A3" { formula = "=A1/A2" }
//	}
//
// It can also import the literals and formulas of an xlsx worksheet.
package sheetfile

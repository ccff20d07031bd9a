package unit

import (
	"strconv"
	"strings"
)

// Dimension indexes into a Dims vector.
type Dimension int

const (
	Length Dimension = iota // meter
	Mass                    // kilogram
	Time                    // second
	Current                 // ampere
	Temperature             // kelvin
	Amount                  // mole
	Luminosity              // candela

	numDimensions
)

var baseSymbols = [numDimensions]string{"m", "kg", "s", "A", "K", "mol", "cd"}

// Dims is an exponent vector over the seven SI base dimensions.
// Multiplication adds vectors, division subtracts them.
type Dims [numDimensions]int8

// Add returns the element-wise sum of two exponent vectors.
func (d Dims) Add(o Dims) Dims {
	for i := range d {
		d[i] += o[i]
	}
	return d
}

// Sub returns the element-wise difference of two exponent vectors.
func (d Dims) Sub(o Dims) Dims {
	for i := range d {
		d[i] -= o[i]
	}
	return d
}

// Scale returns the vector with every exponent multiplied by k.
func (d Dims) Scale(k int) Dims {
	for i := range d {
		d[i] = int8(int(d[i]) * k)
	}
	return d
}

// IsZero reports whether the vector is dimensionless.
func (d Dims) IsZero() bool {
	return d == Dims{}
}

// Even reports whether every exponent is even, i.e. the dimension has an
// exact square root.
func (d Dims) Even() bool {
	for _, e := range d {
		if e%2 != 0 {
			return false
		}
	}
	return true
}

// Halve returns the vector with every exponent halved. Only meaningful
// when Even reports true.
func (d Dims) Halve() Dims {
	for i := range d {
		d[i] /= 2
	}
	return d
}

// Unit tags a value with a physical dimension. Factor is the multiplier
// to SI base scale (1 for base units, 1000 for km); the engine stores all
// values at base scale, so Factor only matters at parse and convert time.
type Unit struct {
	Dim    Dims
	Factor float64
	Symbol string
}

// Dimensionless is the unit of bare numbers.
var Dimensionless = Unit{Factor: 1}

// IsDimensionless reports whether the unit carries no dimension.
func (u Unit) IsDimensionless() bool {
	return u.Dim.IsZero()
}

// SameDim reports whether two units share a dimension vector, ignoring
// scale and symbol.
func (u Unit) SameDim(o Unit) bool {
	return u.Dim == o.Dim
}

// Base returns the unit reduced to SI base scale, keeping the dimension.
// The symbol is re-derived so "km" becomes "m".
func (u Unit) Base() Unit {
	return Unit{Dim: u.Dim, Factor: 1, Symbol: render(u.Dim)}
}

// String renders the unit. Named units keep their symbol; derived units
// render as a product/quotient of base symbols ("m/s", "kg*m/s^2").
func (u Unit) String() string {
	if u.Symbol != "" {
		return u.Symbol
	}
	return render(u.Dim)
}

// render builds a symbol string from an exponent vector.
func render(d Dims) string {
	if d.IsZero() {
		return ""
	}
	var num, den []string
	for i, e := range d {
		switch {
		case e > 0:
			num = append(num, pow(baseSymbols[i], int(e)))
		case e < 0:
			den = append(den, pow(baseSymbols[i], -int(e)))
		}
	}
	switch {
	case len(den) == 0:
		return strings.Join(num, "*")
	case len(num) == 0:
		return "1/" + strings.Join(den, "/")
	default:
		return strings.Join(num, "*") + "/" + strings.Join(den, "/")
	}
}

func pow(sym string, e int) string {
	if e == 1 {
		return sym
	}
	return sym + "^" + strconv.Itoa(e)
}

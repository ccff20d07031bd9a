package unit

import (
	"fmt"
	"strings"
)

func dim(d Dimension, e int8) Dims {
	var v Dims
	v[d] = e
	return v
}

// named maps unit symbols (and a few long names) to their definition.
// Factors are relative to SI base scale.
var named = map[string]Unit{
	// base units
	"m":   {Dim: dim(Length, 1), Factor: 1, Symbol: "m"},
	"kg":  {Dim: dim(Mass, 1), Factor: 1, Symbol: "kg"},
	"s":   {Dim: dim(Time, 1), Factor: 1, Symbol: "s"},
	"A":   {Dim: dim(Current, 1), Factor: 1, Symbol: "A"},
	"K":   {Dim: dim(Temperature, 1), Factor: 1, Symbol: "K"},
	"mol": {Dim: dim(Amount, 1), Factor: 1, Symbol: "mol"},
	"cd":  {Dim: dim(Luminosity, 1), Factor: 1, Symbol: "cd"},

	// scaled variants
	"km":  {Dim: dim(Length, 1), Factor: 1e3, Symbol: "km"},
	"cm":  {Dim: dim(Length, 1), Factor: 1e-2, Symbol: "cm"},
	"mm":  {Dim: dim(Length, 1), Factor: 1e-3, Symbol: "mm"},
	"g":   {Dim: dim(Mass, 1), Factor: 1e-3, Symbol: "g"},
	"mg":  {Dim: dim(Mass, 1), Factor: 1e-6, Symbol: "mg"},
	"ms":  {Dim: dim(Time, 1), Factor: 1e-3, Symbol: "ms"},
	"min": {Dim: dim(Time, 1), Factor: 60, Symbol: "min"},
	"h":   {Dim: dim(Time, 1), Factor: 3600, Symbol: "h"},

	// derived units
	"Hz": {Dim: dim(Time, -1), Factor: 1, Symbol: "Hz"},
	"N":  {Dim: Dims{1, 1, -2}, Factor: 1, Symbol: "N"},
	"Pa": {Dim: Dims{-1, 1, -2}, Factor: 1, Symbol: "Pa"},
	"J":  {Dim: Dims{2, 1, -2}, Factor: 1, Symbol: "J"},
	"W":  {Dim: Dims{2, 1, -3}, Factor: 1, Symbol: "W"},
	"C":  {Dim: Dims{0, 0, 1, 1}, Factor: 1, Symbol: "C"},
	"V":  {Dim: Dims{2, 1, -3, -1}, Factor: 1, Symbol: "V"},
}

// longNames accepts the spelled-out forms the sheet format and tests use.
var longNames = map[string]string{
	"meter": "m", "metre": "m", "meters": "m",
	"kilogram": "kg", "kilograms": "kg", "gram": "g",
	"second": "s", "seconds": "s",
	"ampere": "A", "kelvin": "K", "mole": "mol", "candela": "cd",
	"kilometer": "km", "hour": "h", "minute": "min",
	"newton": "N", "joule": "J", "watt": "W", "hertz": "Hz",
	"pascal": "Pa", "volt": "V", "coulomb": "C",
}

// Parse resolves a unit expression. Accepted forms are a named unit,
// optionally exponentiated ("m^2"), joined by "*" and "/" ("kg*m/s^2").
// The empty string is Dimensionless.
func Parse(raw string) (Unit, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Dimensionless, nil
	}

	result := Dimensionless
	sign := int8(1)
	rest := raw
	for {
		i := strings.IndexAny(rest, "*/")
		term := rest
		if i >= 0 {
			term = rest[:i]
		}
		u, err := parseTerm(term, sign)
		if err != nil {
			return Unit{}, fmt.Errorf("malformed unit %q: %w", raw, err)
		}
		result = mul(result, u)
		if i < 0 {
			break
		}
		if rest[i] == '/' {
			sign = -1
		} else {
			sign = 1
		}
		rest = rest[i+1:]
	}

	if result.Symbol == "" {
		result.Symbol = raw
	}
	return result, nil
}

func parseTerm(term string, sign int8) (Unit, error) {
	exp := int8(1)
	if base, expText, ok := strings.Cut(term, "^"); ok {
		switch expText {
		case "2":
			exp = 2
		case "3":
			exp = 3
		default:
			return Unit{}, fmt.Errorf("unsupported exponent %q", expText)
		}
		term = base
	}

	name := term
	if short, ok := longNames[name]; ok {
		name = short
	}
	u, ok := named[name]
	if !ok {
		return Unit{}, fmt.Errorf("unknown unit %q", term)
	}

	u.Dim = u.Dim.Scale(int(sign) * int(exp))
	u.Factor = powFactor(u.Factor, int(sign)*int(exp))
	u.Symbol = ""
	return u, nil
}

func mul(a, b Unit) Unit {
	return Unit{Dim: a.Dim.Add(b.Dim), Factor: a.Factor * b.Factor}
}

func powFactor(f float64, e int) float64 {
	out := 1.0
	for i := 0; i < e; i++ {
		out *= f
	}
	for i := 0; i > e; i-- {
		out /= f
	}
	return out
}

/*
Copyright © 2026 the unitdata authors.
This file is part of unitdata.

unitdata is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

unitdata is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with unitdata.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package units implements a string-parsing physical unit registry and a
// quantity type that pairs a dense array buffer with a unit.
//
// Dimensional bookkeeping is delegated to github.com/ctessum/unit: every
// Unit carries a unit.Dimensions value, and two units are convertible when
// their dimensions match. On top of that, this package adds what
// github.com/ctessum/unit deliberately leaves out: parsing unit
// expressions such as "dm", "ug/m3" or "kg m-2 s-1" into scale factors
// relative to SI.
//
// Units created by different Registry instances must not be mixed in a
// single conversion; the result of doing so is undefined.
package units

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ctessum/unit"
)

// A Registry parses unit expressions and owns the units it creates.
type Registry struct {
	bases    map[string]baseUnit
	prefixes []prefix
}

type baseUnit struct {
	factor     float64 // multiplier to SI
	dims       unit.Dimensions
	prefixable bool
}

type prefix struct {
	symbol string
	factor float64
}

// NewRegistry returns a registry populated with the SI base and derived
// units, the SI prefixes, and a handful of accepted non-SI units
// (minute, hour, day, liter, tonne).
func NewRegistry() *Registry {
	r := &Registry{
		bases: map[string]baseUnit{
			"m":   {1, unit.Meter, true},
			"g":   {1e-3, unit.Kilogram, true},
			"s":   {1, unit.Second, true},
			"A":   {1, unit.Dimensions{unit.CurrentDim: 1}, true},
			"K":   {1, unit.Kelvin, true},
			"cd":  {1, unit.Dimensions{unit.LuminousIntensityDim: 1}, true},
			"rad": {1, unit.Dimensions{unit.AngleDim: 1}, true},
			"Hz":  {1, unit.Herz, true},
			"N":   {1, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 1, unit.TimeDim: -2}, true},
			"Pa":  {1, unit.Pascal, true},
			"J":   {1, unit.Joule, true},
			"W":   {1, unit.Watt, true},
			"L":   {1e-3, unit.Meter3, true},
			"min": {60, unit.Second, false},
			"h":   {3600, unit.Second, false},
			"d":   {86400, unit.Second, false},
			"t":   {1000, unit.Kilogram, false},
			"%":   {0.01, unit.Dimless, false},
			"1":   {1, unit.Dimless, false},
		},
		// Longer prefixes must sort ahead of their own first letter
		// ("da" before "d") so that lookup can stop at the first match.
		prefixes: []prefix{
			{"Y", 1e24}, {"Z", 1e21}, {"E", 1e18}, {"P", 1e15},
			{"T", 1e12}, {"G", 1e9}, {"M", 1e6}, {"k", 1e3},
			{"h", 1e2}, {"da", 1e1}, {"d", 1e-1}, {"c", 1e-2},
			{"m", 1e-3}, {"µ", 1e-6}, {"μ", 1e-6}, {"u", 1e-6},
			{"n", 1e-9}, {"p", 1e-12}, {"f", 1e-15}, {"a", 1e-18},
			{"z", 1e-21}, {"y", 1e-24},
		},
	}
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-lifetime registry used when no
// explicit registry is supplied.
func DefaultRegistry() *Registry { return defaultRegistry }

// A Unit is an immutable physical unit: a scale factor relative to SI
// together with its dimensions. Equality is exact (same dimensions and
// same scale), not merely dimensional.
type Unit struct {
	registry *Registry
	symbol   string
	factor   float64
	dims     unit.Dimensions
}

// Registry returns the registry that created u.
func (u *Unit) Registry() *Registry { return u.registry }

// Dimensions returns the SI dimensions of u.
func (u *Unit) Dimensions() unit.Dimensions { return u.dims }

// Factor returns the multiplier that converts a value in u to SI.
func (u *Unit) Factor() float64 { return u.factor }

func (u *Unit) String() string {
	if u.symbol == "" {
		if len(u.dims) == 0 {
			return "dimensionless"
		}
		return u.dims.String()
	}
	return u.symbol
}

// Equal reports whether u and o are the same unit: equal dimensions and
// equal scale factor. "m" and "dm" are not equal even though they are
// compatible.
func (u *Unit) Equal(o *Unit) bool {
	if u == nil || o == nil {
		return u == o
	}
	return u.factor == o.factor && u.dims.Matches(o.dims)
}

// Compatible reports whether u and o have the same dimensionality and
// can therefore be converted into each other.
func (u *Unit) Compatible(o *Unit) bool {
	return u.dims.Matches(o.dims)
}

// IsDimensionless reports whether u has no dimensions.
func (u *Unit) IsDimensionless() bool { return len(u.dims) == 0 }

// Base returns the SI unit with the same dimensions as u.
func (u *Unit) Base() *Unit {
	return &Unit{registry: u.registry, symbol: "", factor: 1, dims: u.dims}
}

// Dimensionless returns the registry's dimensionless unit.
func (r *Registry) Dimensionless() *Unit {
	return &Unit{registry: r, symbol: "", factor: 1, dims: unit.Dimensions{}}
}

// Unit coerces v into a *Unit: a *Unit is returned as-is, a string is
// parsed. Anything else is an error.
func (r *Registry) Unit(v interface{}) (*Unit, error) {
	switch t := v.(type) {
	case *Unit:
		return t, nil
	case string:
		return r.Parse(t)
	default:
		return nil, fmt.Errorf("cannot use %v (%T) as a unit", v, v)
	}
}

// MustParse is like Parse but panics on error. It is intended for
// package-level variables and tests.
func (r *Registry) MustParse(expr string) *Unit {
	u, err := r.Parse(expr)
	if err != nil {
		panic(err)
	}
	return u
}

var tokenRe = regexp.MustCompile(`^([A-Za-zµμ%°]+|1)(?:\^?(-?\d+))?$`)

// Parse parses a unit expression. Terms are separated by whitespace or
// "*", "/" divides everything that follows, and exponents may be written
// either caret-style ("m^-3") or COARDS-style ("m-3"). Examples: "dm",
// "ug/m3", "kg m-2 s-1", "m/s^2".
func (r *Registry) Parse(expr string) (*Unit, error) {
	s := strings.TrimSpace(expr)
	switch s {
	case "", "1", "dimensionless":
		u := r.Dimensionless()
		if s == "1" {
			u.symbol = "1"
		}
		return u, nil
	}

	factor := 1.0
	dims := unit.Dimensions{}
	sign := 1
	s = strings.ReplaceAll(s, "**", "^")
	for _, segment := range strings.Split(s, "/") {
		segment = strings.ReplaceAll(segment, "*", " ")
		empty := true
		for _, tok := range strings.Fields(segment) {
			empty = false
			f, d, exp, err := r.parseToken(tok)
			if err != nil {
				return nil, fmt.Errorf("cannot parse unit %q: %v", expr, err)
			}
			exp *= sign
			factor *= pow(f, exp)
			for k, v := range d {
				if n := dims[k] + v*exp; n == 0 {
					delete(dims, k)
				} else {
					dims[k] = n
				}
			}
		}
		if empty {
			return nil, fmt.Errorf("cannot parse unit %q: empty term", expr)
		}
		sign = -1
	}
	return &Unit{registry: r, symbol: s, factor: factor, dims: dims}, nil
}

func (r *Registry) parseToken(tok string) (float64, unit.Dimensions, int, error) {
	m := tokenRe.FindStringSubmatch(tok)
	if m == nil {
		return 0, nil, 0, fmt.Errorf("invalid term %q", tok)
	}
	sym, expStr := m[1], m[2]
	exp := 1
	if expStr != "" {
		var err error
		if exp, err = strconv.Atoi(expStr); err != nil {
			return 0, nil, 0, fmt.Errorf("invalid exponent in %q", tok)
		}
	}

	// An exact symbol match wins over prefix decomposition, so "d" is a
	// day but "dm" is a decimeter.
	if b, ok := r.bases[sym]; ok {
		return b.factor, b.dims, exp, nil
	}
	for _, p := range r.prefixes {
		if !strings.HasPrefix(sym, p.symbol) || len(sym) == len(p.symbol) {
			continue
		}
		if b, ok := r.bases[sym[len(p.symbol):]]; ok && b.prefixable {
			return p.factor * b.factor, b.dims, exp, nil
		}
	}
	return 0, nil, 0, fmt.Errorf("unknown unit %q", sym)
}

func pow(f float64, n int) float64 {
	if n < 0 {
		return 1 / pow(f, -n)
	}
	out := 1.0
	for i := 0; i < n; i++ {
		out *= f
	}
	return out
}

// A DimensionalityError reports an attempt to convert between units of
// incompatible physical dimension.
type DimensionalityError struct {
	From, To *Unit
}

func (e *DimensionalityError) Error() string {
	return fmt.Sprintf("cannot convert from %q (%s) to %q (%s)",
		e.From, dimString(e.From), e.To, dimString(e.To))
}

func dimString(u *Unit) string {
	if len(u.dims) == 0 {
		return "dimensionless"
	}
	return u.dims.String()
}

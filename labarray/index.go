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

package labarray

import (
	"fmt"
	"sort"

	"github.com/spatialmodel/unitdata/units"
)

// An Index supports label-based lookup along one dimension.
type Index interface {
	// Dim returns the dimension the index belongs to.
	Dim() string
	// Levels returns the names of the coordinates backing the index.
	// A single-level index returns exactly one name; more than one name
	// means the index is hierarchical.
	Levels() []string
	// Sel translates a label (a scalar, a slice of scalars, or a Slice
	// range) into integer positions along the dimension. A label that
	// matches nothing returns a *KeyError.
	Sel(label interface{}) ([]int, error)
	// Subset returns a new index restricted to the given positions.
	Subset(positions []int) Index
	// CreateVariables returns one plain coordinate Variable per level.
	CreateVariables() map[string]*Variable
}

// A Slice selects a label range. Start and Stop are inclusive bounds
// (either may be nil for an open end) and Step, if non-nil, is an
// integer stride over the selected labels. At this layer bounds are
// plain numbers; unit-bearing bounds are converted before the slice
// reaches an Index.
type Slice struct {
	Start, Stop, Step interface{}
}

// A KeyError reports a label-lookup failure along a dimension.
type KeyError struct {
	Dim   string
	Label interface{}
	Err   error
}

func (e *KeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no entry for label %v on dimension %q: %v", e.Label, e.Dim, e.Err)
	}
	return fmt.Sprintf("no entry for label %v on dimension %q", e.Label, e.Dim)
}

func (e *KeyError) Unwrap() error { return e.Err }

// NumberIndex is a single-level index over a numeric dimension
// coordinate.
type NumberIndex struct {
	dim    string
	values []float64
}

// NewNumberIndex creates an index over the labels of dimension dim.
func NewNumberIndex(dim string, values []float64) *NumberIndex {
	return &NumberIndex{dim: dim, values: values}
}

// Dim implements Index.
func (ix *NumberIndex) Dim() string { return ix.dim }

// Levels implements Index.
func (ix *NumberIndex) Levels() []string { return []string{ix.dim} }

// Values returns the label values, in dimension order.
func (ix *NumberIndex) Values() []float64 { return ix.values }

// Sel implements Index.
func (ix *NumberIndex) Sel(label interface{}) ([]int, error) {
	switch t := label.(type) {
	case float64:
		return ix.exact(t)
	case int:
		return ix.exact(float64(t))
	case []float64:
		var out []int
		for _, v := range t {
			pos, err := ix.exact(v)
			if err != nil {
				return nil, err
			}
			out = append(out, pos...)
		}
		return out, nil
	case Slice:
		return ix.rangeSel(t)
	case *Slice:
		return ix.rangeSel(*t)
	default:
		return nil, &KeyError{Dim: ix.dim, Label: label,
			Err: fmt.Errorf("unsupported label type %T", label)}
	}
}

func (ix *NumberIndex) exact(v float64) ([]int, error) {
	var out []int
	for i, label := range ix.values {
		if label == v {
			out = append(out, i)
		}
	}
	if out == nil {
		return nil, &KeyError{Dim: ix.dim, Label: v}
	}
	return out, nil
}

func (ix *NumberIndex) rangeSel(s Slice) ([]int, error) {
	start, stop, step, err := sliceBounds(s)
	if err != nil {
		return nil, &KeyError{Dim: ix.dim, Label: s, Err: err}
	}
	var out []int
	for i, label := range ix.values {
		if start != nil && label < *start {
			continue
		}
		if stop != nil && label > *stop {
			continue
		}
		out = append(out, i)
	}
	if step > 1 {
		strided := out[:0]
		for i := 0; i < len(out); i += step {
			strided = append(strided, out[i])
		}
		out = strided
	}
	return out, nil
}

func sliceBounds(s Slice) (start, stop *float64, step int, err error) {
	toFloat := func(v interface{}) (*float64, error) {
		switch t := v.(type) {
		case nil:
			return nil, nil
		case float64:
			return &t, nil
		case int:
			f := float64(t)
			return &f, nil
		default:
			return nil, fmt.Errorf("unsupported slice bound type %T", v)
		}
	}
	if start, err = toFloat(s.Start); err != nil {
		return nil, nil, 0, err
	}
	if stop, err = toFloat(s.Stop); err != nil {
		return nil, nil, 0, err
	}
	step = 1
	switch t := s.Step.(type) {
	case nil:
	case int:
		step = t
	case float64:
		step = int(t)
	default:
		return nil, nil, 0, fmt.Errorf("unsupported slice step type %T", s.Step)
	}
	if step < 1 {
		return nil, nil, 0, fmt.Errorf("slice step must be positive, got %d", step)
	}
	return start, stop, step, nil
}

// Subset implements Index.
func (ix *NumberIndex) Subset(positions []int) Index {
	values := make([]float64, len(positions))
	for i, p := range positions {
		if p >= 0 {
			values[i] = ix.values[p]
		}
	}
	return &NumberIndex{dim: ix.dim, values: values}
}

// CreateVariables implements Index.
func (ix *NumberIndex) CreateVariables() map[string]*Variable {
	v, err := NewVariable([]string{ix.dim}, units.Dense(ix.values...), nil)
	if err != nil {
		panic(err) // one dimension name, rank-1 data
	}
	return map[string]*Variable{ix.dim: v}
}

// MultiIndex is a hierarchical index: several named levels over a single
// dimension. Labels are matched against all levels at once.
type MultiIndex struct {
	dim    string
	levels []string
	values map[string][]float64
}

// NewMultiIndex creates a hierarchical index over dim. All level value
// slices must have the same length.
func NewMultiIndex(dim string, levels []string, values map[string][]float64) (*MultiIndex, error) {
	if len(levels) < 2 {
		return nil, fmt.Errorf("labarray: a multi index needs at least two levels, got %v", levels)
	}
	n := -1
	for _, name := range levels {
		vals, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("labarray: missing values for level %q", name)
		}
		if n >= 0 && len(vals) != n {
			return nil, fmt.Errorf("labarray: level %q has %d values, want %d", name, len(vals), n)
		}
		n = len(vals)
	}
	return &MultiIndex{dim: dim, levels: levels, values: values}, nil
}

// Dim implements Index.
func (ix *MultiIndex) Dim() string { return ix.dim }

// Levels implements Index.
func (ix *MultiIndex) Levels() []string { return ix.levels }

// Sel implements Index. The label must be a map from level name to
// value; every named level must match.
func (ix *MultiIndex) Sel(label interface{}) ([]int, error) {
	want, ok := label.(map[string]float64)
	if !ok {
		return nil, &KeyError{Dim: ix.dim, Label: label,
			Err: fmt.Errorf("multi index labels must be map[string]float64, got %T", label)}
	}
	names := make([]string, 0, len(want))
	for name := range want {
		if _, ok := ix.values[name]; !ok {
			return nil, &KeyError{Dim: ix.dim, Label: label,
				Err: fmt.Errorf("unknown level %q", name)}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	n := len(ix.values[ix.levels[0]])
	var out []int
	for i := 0; i < n; i++ {
		match := true
		for _, name := range names {
			if ix.values[name][i] != want[name] {
				match = false
				break
			}
		}
		if match {
			out = append(out, i)
		}
	}
	if out == nil {
		return nil, &KeyError{Dim: ix.dim, Label: label}
	}
	return out, nil
}

// Subset implements Index.
func (ix *MultiIndex) Subset(positions []int) Index {
	values := make(map[string][]float64, len(ix.levels))
	for _, name := range ix.levels {
		vals := make([]float64, len(positions))
		for i, p := range positions {
			if p >= 0 {
				vals[i] = ix.values[name][p]
			}
		}
		values[name] = vals
	}
	return &MultiIndex{dim: ix.dim, levels: ix.levels, values: values}
}

// CreateVariables implements Index.
func (ix *MultiIndex) CreateVariables() map[string]*Variable {
	out := make(map[string]*Variable, len(ix.levels))
	for _, name := range ix.levels {
		v, err := NewVariable([]string{ix.dim}, units.Dense(ix.values[name]...), nil)
		if err != nil {
			panic(err)
		}
		out[name] = v
	}
	return out
}

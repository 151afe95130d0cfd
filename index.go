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

package unitdata

import (
	"github.com/ctessum/sparse"

	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/units"
)

// A UnitIndex decorates a label index with per-level units. Lookups
// convert unit-bearing labels to the level's unit before delegating to
// the wrapped index, so "6 dm" finds the label 0.6 on a meter-labeled
// dimension. The wrapped index itself only ever sees plain numbers.
type UnitIndex struct {
	index labarray.Index
	units map[string]*units.Unit
}

// NewUnitIndex wraps index with the given per-level units. Levels
// missing from the map are treated as unitless.
func NewUnitIndex(index labarray.Index, unitMap map[string]*units.Unit) *UnitIndex {
	return &UnitIndex{index: index, units: unitMap}
}

// Replace returns a UnitIndex around a different inner index, sharing
// the same per-level units. The receiver is not modified.
func (ix *UnitIndex) Replace(inner labarray.Index) *UnitIndex {
	return &UnitIndex{index: inner, units: ix.units}
}

// Unwrap returns the wrapped plain index.
func (ix *UnitIndex) Unwrap() labarray.Index { return ix.index }

// Units returns the per-level unit mapping. The returned map must not
// be modified.
func (ix *UnitIndex) Units() map[string]*units.Unit { return ix.units }

// Dim implements labarray.Index.
func (ix *UnitIndex) Dim() string { return ix.index.Dim() }

// Levels implements labarray.Index.
func (ix *UnitIndex) Levels() []string { return ix.index.Levels() }

// Sel implements labarray.Index: the label is converted to the level's
// unit and stripped before delegating. A conversion failure is reported
// as a lookup failure (*labarray.KeyError) so that callers see every
// bad label the same way.
func (ix *UnitIndex) Sel(label interface{}) ([]int, error) {
	u := ix.units[ix.Levels()[0]]
	conv, err := convertIndexer(label, u)
	if err != nil {
		return nil, &labarray.KeyError{Dim: ix.Dim(), Label: label, Err: err}
	}
	plain, err := stripIndexer(conv)
	if err != nil {
		return nil, &labarray.KeyError{Dim: ix.Dim(), Label: label, Err: err}
	}
	return ix.index.Sel(plain)
}

// Subset implements labarray.Index, preserving the unit decoration.
func (ix *UnitIndex) Subset(positions []int) labarray.Index {
	return ix.Replace(ix.index.Subset(positions))
}

// CreateVariables implements labarray.Index. Each level variable is
// quantified with the level's recorded unit.
func (ix *UnitIndex) CreateVariables() map[string]*labarray.Variable {
	inner := ix.index.CreateVariables()
	out := make(map[string]*labarray.Variable, len(inner))
	for name, v := range inner {
		u := ix.units[name]
		if u == nil {
			out[name] = v
			continue
		}
		d, ok := v.Data().(*sparse.DenseArray)
		if !ok {
			out[name] = v
			continue
		}
		out[name] = v.Copy(units.NewQuantity(d, u))
	}
	return out
}

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

	"github.com/ctessum/sparse"
)

// A DataArray is a single Variable with an optional name and a mapping
// of coordinate Variables. An empty name means the array is unnamed.
type DataArray struct {
	name     string
	variable *Variable
	coords   map[string]*Variable
	indexes  map[string]Index
}

// NewDataArray creates a DataArray. Every coordinate's dimensions must
// appear among the main variable's dimensions, and coordinates sharing a
// dimension with the main variable must agree on its size. Dimension
// coordinates (a one-dimensional plain coordinate named after its
// dimension) automatically get a label index.
func NewDataArray(name string, v *Variable, coords map[string]*Variable) (*DataArray, error) {
	if v == nil {
		return nil, fmt.Errorf("labarray: data array %q has no variable", name)
	}
	sizes := dimSizes(v)
	for cname, c := range coords {
		for i, d := range c.Dims() {
			size, ok := sizes[d]
			if !ok {
				return nil, fmt.Errorf("labarray: coordinate %q has dimension %q not present in the data", cname, d)
			}
			if c.Shape()[i] != size {
				return nil, fmt.Errorf("labarray: coordinate %q has size %d on dimension %q, want %d",
					cname, c.Shape()[i], d, size)
			}
		}
	}
	return &DataArray{
		name:     name,
		variable: v,
		coords:   copyVars(coords),
		indexes:  buildIndexes(coords),
	}, nil
}

// Name returns the name of the array; "" means unnamed.
func (da *DataArray) Name() string { return da.name }

// Variable returns the main variable.
func (da *DataArray) Variable() *Variable { return da.variable }

// Coords returns the coordinate mapping. The returned map must not be
// modified.
func (da *DataArray) Coords() map[string]*Variable { return da.coords }

// Rename returns a copy of da with a new name.
func (da *DataArray) Rename(name string) *DataArray {
	return &DataArray{name: name, variable: da.variable, coords: da.coords, indexes: da.indexes}
}

// Index returns the label index for dim, if any.
func (da *DataArray) Index(dim string) (Index, bool) {
	ix, ok := da.indexes[dim]
	return ix, ok
}

// Indexes returns a copy of the index mapping.
func (da *DataArray) Indexes() map[string]Index {
	out := make(map[string]Index, len(da.indexes))
	for k, v := range da.indexes {
		out[k] = v
	}
	return out
}

// SetIndex returns a copy of da with the index for dim replaced.
func (da *DataArray) SetIndex(dim string, ix Index) *DataArray {
	indexes := da.Indexes()
	indexes[dim] = ix
	return &DataArray{name: da.name, variable: da.variable, coords: da.coords, indexes: indexes}
}

// ToDataset converts da into a single-variable Dataset keyed by its
// name, carrying the coordinates and indexes along. The array must be
// named.
func (da *DataArray) ToDataset() (*Dataset, error) {
	if da.name == "" {
		return nil, fmt.Errorf("labarray: cannot convert an unnamed data array to a dataset")
	}
	if _, ok := da.coords[da.name]; ok {
		return nil, fmt.Errorf("labarray: data array name %q collides with a coordinate", da.name)
	}
	ds, err := NewDataset(map[string]*Variable{da.name: da.variable}, da.coords, nil)
	if err != nil {
		return nil, err
	}
	for dim, ix := range da.indexes {
		ds = ds.SetIndex(dim, ix)
	}
	return ds, nil
}

func dimSizes(v *Variable) map[string]int {
	sizes := make(map[string]int, len(v.Dims()))
	for i, d := range v.Dims() {
		sizes[d] = v.Shape()[i]
	}
	return sizes
}

func copyVars(in map[string]*Variable) map[string]*Variable {
	out := make(map[string]*Variable, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// buildIndexes creates a NumberIndex for every dimension coordinate
// holding a plain buffer. Wrapped (quantity) coordinates are skipped:
// index-bearing coordinates keep their units in attributes instead.
func buildIndexes(coords map[string]*Variable) map[string]Index {
	indexes := make(map[string]Index)
	for name, c := range coords {
		if len(c.Dims()) != 1 || c.Dims()[0] != name {
			continue
		}
		d, ok := c.Data().(*sparse.DenseArray)
		if !ok {
			continue
		}
		indexes[name] = NewNumberIndex(name, d.Elements)
	}
	return indexes
}

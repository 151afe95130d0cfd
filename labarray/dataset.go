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
)

// A Dataset maps variable names to data variables, plus coordinates and
// dataset-level attributes. All variables sharing a dimension name must
// agree on its size.
type Dataset struct {
	dataVars map[string]*Variable
	coords   map[string]*Variable
	attrs    Attributes
	indexes  map[string]Index
}

// NewDataset creates a Dataset from data variables, coordinates and
// attributes, validating dimension-size consistency. Dimension
// coordinates holding plain buffers automatically get a label index.
func NewDataset(dataVars, coords map[string]*Variable, attrs Attributes) (*Dataset, error) {
	sizes := make(map[string]int)
	check := func(name string, v *Variable) error {
		for i, d := range v.Dims() {
			if size, ok := sizes[d]; ok {
				if v.Shape()[i] != size {
					return fmt.Errorf("labarray: variable %q has size %d on dimension %q, want %d",
						name, v.Shape()[i], d, size)
				}
			} else {
				sizes[d] = v.Shape()[i]
			}
		}
		return nil
	}
	for _, name := range sortedVarNames(coords) {
		if err := check(name, coords[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedVarNames(dataVars) {
		if _, ok := coords[name]; ok {
			return nil, fmt.Errorf("labarray: %q is both a data variable and a coordinate", name)
		}
		if err := check(name, dataVars[name]); err != nil {
			return nil, err
		}
	}
	return &Dataset{
		dataVars: copyVars(dataVars),
		coords:   copyVars(coords),
		attrs:    attrs.Copy(),
		indexes:  buildIndexes(coords),
	}, nil
}

// DataVars returns the data-variable mapping. The returned map must not
// be modified.
func (ds *Dataset) DataVars() map[string]*Variable { return ds.dataVars }

// Coords returns the coordinate mapping. The returned map must not be
// modified.
func (ds *Dataset) Coords() map[string]*Variable { return ds.coords }

// Attrs returns the dataset-level attributes.
func (ds *Dataset) Attrs() Attributes { return ds.attrs }

// IsCoord reports whether name is a coordinate.
func (ds *Dataset) IsCoord(name string) bool {
	_, ok := ds.coords[name]
	return ok
}

// Variable returns the data variable or coordinate named name.
func (ds *Dataset) Variable(name string) (*Variable, bool) {
	if v, ok := ds.dataVars[name]; ok {
		return v, true
	}
	v, ok := ds.coords[name]
	return v, ok
}

// VariableNames returns the names of all coordinates and data variables,
// sorted.
func (ds *Dataset) VariableNames() []string {
	names := make([]string, 0, len(ds.dataVars)+len(ds.coords))
	for name := range ds.coords {
		names = append(names, name)
	}
	for name := range ds.dataVars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dims returns the size of every dimension in the dataset.
func (ds *Dataset) Dims() map[string]int {
	sizes := make(map[string]int)
	collect := func(v *Variable) {
		for i, d := range v.Dims() {
			sizes[d] = v.Shape()[i]
		}
	}
	for _, v := range ds.coords {
		collect(v)
	}
	for _, v := range ds.dataVars {
		collect(v)
	}
	return sizes
}

// Index returns the label index for dim, if any.
func (ds *Dataset) Index(dim string) (Index, bool) {
	ix, ok := ds.indexes[dim]
	return ix, ok
}

// Indexes returns a copy of the index mapping.
func (ds *Dataset) Indexes() map[string]Index {
	out := make(map[string]Index, len(ds.indexes))
	for k, v := range ds.indexes {
		out[k] = v
	}
	return out
}

// SetIndex returns a copy of ds with the index for dim replaced.
func (ds *Dataset) SetIndex(dim string, ix Index) *Dataset {
	indexes := ds.Indexes()
	indexes[dim] = ix
	return &Dataset{dataVars: ds.dataVars, coords: ds.coords, attrs: ds.attrs, indexes: indexes}
}

// HasMultiIndex reports whether the coordinate named name backs (a level
// of) a hierarchical index.
func (ds *Dataset) HasMultiIndex(name string) bool {
	for _, ix := range ds.indexes {
		levels := ix.Levels()
		if len(levels) < 2 {
			continue
		}
		for _, l := range levels {
			if l == name {
				return true
			}
		}
	}
	return false
}

// HasIndex reports whether the coordinate named name backs a
// single-level label index.
func (ds *Dataset) HasIndex(name string) bool {
	for _, ix := range ds.indexes {
		levels := ix.Levels()
		if len(levels) == 1 && levels[0] == name {
			return true
		}
	}
	return false
}

// DataArray extracts the data variable named name as a DataArray,
// carrying along every coordinate whose dimensions are covered by the
// variable, and the relevant indexes.
func (ds *Dataset) DataArray(name string) (*DataArray, error) {
	v, ok := ds.dataVars[name]
	if !ok {
		return nil, fmt.Errorf("labarray: no data variable named %q", name)
	}
	dims := make(map[string]bool, len(v.Dims()))
	for _, d := range v.Dims() {
		dims[d] = true
	}
	coords := make(map[string]*Variable)
	for cname, c := range ds.coords {
		covered := true
		for _, d := range c.Dims() {
			if !dims[d] {
				covered = false
				break
			}
		}
		if covered {
			coords[cname] = c
		}
	}
	da, err := NewDataArray(name, v, coords)
	if err != nil {
		return nil, err
	}
	for dim, ix := range ds.indexes {
		if dims[dim] {
			da = da.SetIndex(dim, ix)
		}
	}
	return da, nil
}

func sortedVarNames(vars map[string]*Variable) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

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

// Sel selects along one or more dimensions by label. The labels must
// already be plain values; the unit-aware entry points in the root
// package convert unit-bearing labels before delegating here.
func (ds *Dataset) Sel(indexers map[string]interface{}) (*Dataset, error) {
	out := ds
	for _, dim := range sortedIndexerDims(indexers) {
		ix, ok := out.indexes[dim]
		if !ok {
			return nil, fmt.Errorf("labarray: no index for dimension %q", dim)
		}
		positions, err := ix.Sel(indexers[dim])
		if err != nil {
			return nil, err
		}
		if out, err = out.isel(dim, positions); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DropSel removes the labels matched by each indexer, keeping everything
// else.
func (ds *Dataset) DropSel(indexers map[string]interface{}) (*Dataset, error) {
	out := ds
	for _, dim := range sortedIndexerDims(indexers) {
		ix, ok := out.indexes[dim]
		if !ok {
			return nil, fmt.Errorf("labarray: no index for dimension %q", dim)
		}
		drop, err := ix.Sel(indexers[dim])
		if err != nil {
			return nil, err
		}
		size, ok := out.Dims()[dim]
		if !ok {
			return nil, fmt.Errorf("labarray: unknown dimension %q", dim)
		}
		dropSet := make(map[int]bool, len(drop))
		for _, p := range drop {
			dropSet[p] = true
		}
		keep := make([]int, 0, size-len(dropSet))
		for i := 0; i < size; i++ {
			if !dropSet[i] {
				keep = append(keep, i)
			}
		}
		if out, err = out.isel(dim, keep); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Reindex conforms each indexed dimension to the given label values.
// Labels present in the index select the matching position; labels with
// no match produce NaN fill values.
func (ds *Dataset) Reindex(indexers map[string][]float64) (*Dataset, error) {
	out := ds
	for _, dim := range sortedReindexDims(indexers) {
		ix, ok := out.indexes[dim]
		if !ok {
			return nil, fmt.Errorf("labarray: no index for dimension %q", dim)
		}
		labels := indexers[dim]
		positions := make([]int, len(labels))
		for i, label := range labels {
			match, err := ix.Sel(label)
			switch {
			case err == nil && len(match) > 0:
				positions[i] = match[0]
			case err != nil:
				if _, ok := err.(*KeyError); !ok {
					return nil, err
				}
				positions[i] = -1 // NaN fill
			}
		}
		var err error
		if out, err = out.isel(dim, positions); err != nil {
			return nil, err
		}
		// The subset index holds zeros at fill positions; rebuild it
		// from the requested labels instead.
		if _, ok := out.indexes[dim].(*NumberIndex); ok {
			out = out.SetIndex(dim, NewNumberIndex(dim, labels))
		}
	}
	return out, nil
}

// isel subsets every variable with dimension dim to the given positions
// and restricts the matching indexes, preserving index wrappers through
// Index.Subset.
func (ds *Dataset) isel(dim string, positions []int) (*Dataset, error) {
	dataVars := make(map[string]*Variable, len(ds.dataVars))
	coords := make(map[string]*Variable, len(ds.coords))
	for name, v := range ds.dataVars {
		nv, err := v.isel(dim, positions)
		if err != nil {
			return nil, fmt.Errorf("labarray: selecting %q: %v", name, err)
		}
		dataVars[name] = nv
	}
	for name, v := range ds.coords {
		nv, err := v.isel(dim, positions)
		if err != nil {
			return nil, fmt.Errorf("labarray: selecting %q: %v", name, err)
		}
		coords[name] = nv
	}
	indexes := make(map[string]Index, len(ds.indexes))
	for d, ix := range ds.indexes {
		if d == dim {
			indexes[d] = ix.Subset(positions)
		} else {
			indexes[d] = ix
		}
	}
	return &Dataset{dataVars: dataVars, coords: coords, attrs: ds.attrs, indexes: indexes}, nil
}

// Sel selects along one or more dimensions of a DataArray by label.
func (da *DataArray) Sel(indexers map[string]interface{}) (*DataArray, error) {
	out := da
	for _, dim := range sortedIndexerDims(indexers) {
		ix, ok := out.indexes[dim]
		if !ok {
			return nil, fmt.Errorf("labarray: no index for dimension %q", dim)
		}
		positions, err := ix.Sel(indexers[dim])
		if err != nil {
			return nil, err
		}
		if out, err = out.isel(dim, positions); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DropSel removes the labels matched by each indexer from a DataArray,
// keeping everything else.
func (da *DataArray) DropSel(indexers map[string]interface{}) (*DataArray, error) {
	out := da
	for _, dim := range sortedIndexerDims(indexers) {
		ix, ok := out.indexes[dim]
		if !ok {
			return nil, fmt.Errorf("labarray: no index for dimension %q", dim)
		}
		drop, err := ix.Sel(indexers[dim])
		if err != nil {
			return nil, err
		}
		size, ok := dimSizes(out.variable)[dim]
		if !ok {
			return nil, fmt.Errorf("labarray: unknown dimension %q", dim)
		}
		dropSet := make(map[int]bool, len(drop))
		for _, p := range drop {
			dropSet[p] = true
		}
		keep := make([]int, 0, size-len(dropSet))
		for i := 0; i < size; i++ {
			if !dropSet[i] {
				keep = append(keep, i)
			}
		}
		if out, err = out.isel(dim, keep); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Reindex conforms each indexed dimension of a DataArray to the given
// label values, filling unmatched labels with NaN.
func (da *DataArray) Reindex(indexers map[string][]float64) (*DataArray, error) {
	out := da
	for _, dim := range sortedReindexDims(indexers) {
		ix, ok := out.indexes[dim]
		if !ok {
			return nil, fmt.Errorf("labarray: no index for dimension %q", dim)
		}
		labels := indexers[dim]
		positions := make([]int, len(labels))
		for i, label := range labels {
			match, err := ix.Sel(label)
			switch {
			case err == nil && len(match) > 0:
				positions[i] = match[0]
			case err != nil:
				if _, ok := err.(*KeyError); !ok {
					return nil, err
				}
				positions[i] = -1 // NaN fill
			}
		}
		var err error
		if out, err = out.isel(dim, positions); err != nil {
			return nil, err
		}
		if _, ok := out.indexes[dim].(*NumberIndex); ok {
			out = out.SetIndex(dim, NewNumberIndex(dim, labels))
		}
	}
	return out, nil
}

// isel subsets the main variable and every coordinate along dim and
// restricts the matching index, preserving index wrappers through
// Index.Subset.
func (da *DataArray) isel(dim string, positions []int) (*DataArray, error) {
	variable, err := da.variable.isel(dim, positions)
	if err != nil {
		return nil, err
	}
	coords := make(map[string]*Variable, len(da.coords))
	for name, c := range da.coords {
		nc, err := c.isel(dim, positions)
		if err != nil {
			return nil, fmt.Errorf("labarray: selecting %q: %v", name, err)
		}
		coords[name] = nc
	}
	indexes := make(map[string]Index, len(da.indexes))
	for d, ix := range da.indexes {
		if d == dim {
			indexes[d] = ix.Subset(positions)
		} else {
			indexes[d] = ix
		}
	}
	return &DataArray{name: da.name, variable: variable, coords: coords, indexes: indexes}, nil
}

func sortedIndexerDims(indexers map[string]interface{}) []string {
	dims := make([]string, 0, len(indexers))
	for d := range indexers {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}

func sortedReindexDims(indexers map[string][]float64) []string {
	dims := make([]string, 0, len(indexers))
	for d := range indexers {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}

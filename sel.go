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
	"fmt"
	"sort"

	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/units"
)

// Sel selects by label with unit-aware indexers: labels carrying units
// are converted to the unit of the dimension's index before lookup, so
// selecting "6 dm" on a meter-labeled dimension finds the label 0.6.
// Plain labels pass through unchanged. Conversion failures are
// collected across all dimensions before any selection happens.
func Sel(obj interface{}, indexers map[string]interface{}) (interface{}, error) {
	switch t := obj.(type) {
	case *labarray.Dataset:
		plain, err := convertIndexers(t.Indexes(), indexers)
		if err != nil {
			return nil, err
		}
		return t.Sel(plain)
	case *labarray.DataArray:
		plain, err := convertIndexers(t.Indexes(), indexers)
		if err != nil {
			return nil, err
		}
		return t.Sel(plain)
	default:
		return nil, &UnknownEntityError{Value: obj}
	}
}

// DropSel removes the labels matched by each unit-aware indexer,
// keeping everything else.
func DropSel(obj interface{}, indexers map[string]interface{}) (interface{}, error) {
	switch t := obj.(type) {
	case *labarray.Dataset:
		plain, err := convertIndexers(t.Indexes(), indexers)
		if err != nil {
			return nil, err
		}
		return t.DropSel(plain)
	case *labarray.DataArray:
		plain, err := convertIndexers(t.Indexes(), indexers)
		if err != nil {
			return nil, err
		}
		return t.DropSel(plain)
	default:
		return nil, &UnknownEntityError{Value: obj}
	}
}

// Reindex conforms indexed dimensions to the given labels, which may be
// []float64 or a rank-1 *units.Quantity converted to the index's unit
// first. Labels with no match produce NaN fill values.
func Reindex(obj interface{}, indexers map[string]interface{}) (interface{}, error) {
	switch t := obj.(type) {
	case *labarray.Dataset:
		plain, err := reindexLabels(t.Indexes(), indexers)
		if err != nil {
			return nil, err
		}
		out, err := t.Reindex(plain)
		if err != nil {
			return nil, err
		}
		return refreshUnitIndexes(out, plain), nil
	case *labarray.DataArray:
		plain, err := reindexLabels(t.Indexes(), indexers)
		if err != nil {
			return nil, err
		}
		out, err := t.Reindex(plain)
		if err != nil {
			return nil, err
		}
		return refreshUnitIndexesArray(out, plain), nil
	default:
		return nil, &UnknownEntityError{Value: obj}
	}
}

// indexUnit returns the unit the labels of dim are expressed in, if the
// dimension carries a unit-decorated index.
func indexUnit(indexes map[string]labarray.Index, dim string) *units.Unit {
	uix, ok := indexes[dim].(*UnitIndex)
	if !ok {
		return nil
	}
	return uix.Units()[uix.Levels()[0]]
}

// convertIndexers converts every unit-bearing indexer to the unit of
// its dimension's index and strips it down to plain labels. Failures
// are collected across all dimensions into one *AggregateError.
func convertIndexers(indexes map[string]labarray.Index, indexers map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(indexers))
	var entries []ComponentError
	for _, dim := range sortedDims(indexers) {
		u := indexUnit(indexes, dim)
		conv, err := convertIndexer(indexers[dim], u)
		if err == nil {
			var plain interface{}
			if plain, err = stripIndexer(conv); err == nil {
				out[dim] = plain
				continue
			}
		}
		entries = append(entries, ComponentError{Name: dim, Unit: u, Err: err})
	}
	if len(entries) > 0 {
		return nil, &AggregateError{Op: opConvertIndexers, Entries: entries}
	}
	return out, nil
}

// convertIndexer converts one indexer to unit u. Plain labels pass
// through unchanged; a unit-bearing label on a dimension with no
// recorded unit is kept as given and later stripped to its magnitude.
// Slice bounds are converted independently.
func convertIndexer(label interface{}, u *units.Unit) (interface{}, error) {
	switch t := label.(type) {
	case *units.Quantity:
		if u == nil {
			return t, nil
		}
		return t.To(u)
	case labarray.Slice:
		return convertSlice(t, u)
	case *labarray.Slice:
		return convertSlice(*t, u)
	default:
		return label, nil
	}
}

// convertSlice converts the start, stop and step of a label range
// independently; each bound may carry its own unit or none. On a
// dimension with no recorded unit the bounds are kept as given, but
// unit-bearing bounds must still agree with each other dimensionally.
func convertSlice(s labarray.Slice, u *units.Unit) (labarray.Slice, error) {
	if u == nil {
		first := sliceUnit(s)
		if first == nil {
			return s, nil
		}
		for _, v := range []interface{}{s.Start, s.Stop, s.Step} {
			if q, ok := v.(*units.Quantity); ok && !q.Unit().Compatible(first) {
				return s, &units.DimensionalityError{From: q.Unit(), To: first}
			}
		}
		return s, nil
	}
	conv := func(v interface{}) (interface{}, error) {
		q, ok := v.(*units.Quantity)
		if !ok {
			return v, nil
		}
		return q.To(u)
	}
	var err error
	if s.Start, err = conv(s.Start); err != nil {
		return s, err
	}
	if s.Stop, err = conv(s.Stop); err != nil {
		return s, err
	}
	if s.Step, err = conv(s.Step); err != nil {
		return s, err
	}
	return s, nil
}

// sliceUnit returns the unit of the first unit-bearing bound of s, or
// nil when every bound is plain.
func sliceUnit(s labarray.Slice) *units.Unit {
	for _, v := range []interface{}{s.Start, s.Stop, s.Step} {
		if q, ok := v.(*units.Quantity); ok {
			return q.Unit()
		}
	}
	return nil
}

// stripIndexer unwraps converted quantities down to the plain label
// forms the container layer understands.
func stripIndexer(label interface{}) (interface{}, error) {
	switch t := label.(type) {
	case *units.Quantity:
		switch len(t.GetShape()) {
		case 0:
			return t.Magnitude().Elements[0], nil
		case 1:
			return append([]float64(nil), t.Magnitude().Elements...), nil
		default:
			return nil, fmt.Errorf("rank-%d quantity cannot be used as a label", len(t.GetShape()))
		}
	case labarray.Slice:
		var err error
		if t.Start, err = stripIndexer(t.Start); err != nil {
			return nil, err
		}
		if t.Stop, err = stripIndexer(t.Stop); err != nil {
			return nil, err
		}
		if t.Step, err = stripIndexer(t.Step); err != nil {
			return nil, err
		}
		return t, nil
	case *labarray.Slice:
		return stripIndexer(*t)
	case nil:
		return nil, nil
	default:
		return label, nil
	}
}

// reindexLabels converts unit-aware reindex labels to plain []float64
// per dimension.
func reindexLabels(indexes map[string]labarray.Index, indexers map[string]interface{}) (map[string][]float64, error) {
	out := make(map[string][]float64, len(indexers))
	var entries []ComponentError
	for _, dim := range sortedDims(indexers) {
		u := indexUnit(indexes, dim)
		labels, err := reindexLabel(indexers[dim], u)
		if err != nil {
			entries = append(entries, ComponentError{Name: dim, Unit: u, Err: err})
			continue
		}
		out[dim] = labels
	}
	if len(entries) > 0 {
		return nil, &AggregateError{Op: opConvertIndexers, Entries: entries}
	}
	return out, nil
}

func reindexLabel(label interface{}, u *units.Unit) ([]float64, error) {
	switch t := label.(type) {
	case []float64:
		return t, nil
	case *units.Quantity:
		conv, err := convertIndexer(t, u)
		if err != nil {
			return nil, err
		}
		q := conv.(*units.Quantity)
		if len(q.GetShape()) != 1 {
			return nil, fmt.Errorf("reindex labels must be one-dimensional, got shape %v", q.GetShape())
		}
		return append([]float64(nil), q.Magnitude().Elements...), nil
	default:
		return nil, fmt.Errorf("unsupported reindex label type %T", label)
	}
}

// refreshUnitIndexes rebuilds the inner index of unit-decorated
// dimensions from the requested labels, since the reindexed positions
// may include fills that the subset index cannot represent.
func refreshUnitIndexes(ds *labarray.Dataset, labels map[string][]float64) *labarray.Dataset {
	for dim, vals := range labels {
		if uix, ok := ds.Indexes()[dim].(*UnitIndex); ok {
			ds = ds.SetIndex(dim, uix.Replace(labarray.NewNumberIndex(dim, vals)))
		}
	}
	return ds
}

func refreshUnitIndexesArray(da *labarray.DataArray, labels map[string][]float64) *labarray.DataArray {
	for dim, vals := range labels {
		if uix, ok := da.Indexes()[dim].(*UnitIndex); ok {
			da = da.SetIndex(dim, uix.Replace(labarray.NewNumberIndex(dim, vals)))
		}
	}
	return da
}

func sortedDims(indexers map[string]interface{}) []string {
	dims := make([]string, 0, len(indexers))
	for d := range indexers {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}

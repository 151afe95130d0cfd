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

// Package labarray implements labeled multi-dimensional array containers:
// variables with named dimensions and attributes, single-variable arrays
// with coordinates, and multi-variable datasets with label-based
// selection. It is the container layer that the unitdata root package
// attaches unit metadata to.
//
// All types are immutable by convention: operations return new values
// and never modify their receivers.
package labarray

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/spf13/cast"

	"github.com/spatialmodel/unitdata/units"
)

// Attributes is free-form per-variable or per-dataset metadata.
type Attributes map[string]interface{}

// Copy returns a shallow copy of a. A nil receiver yields an empty map.
func (a Attributes) Copy() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// GetString returns the attribute named key coerced to a string, and
// whether the attribute exists.
func (a Attributes) GetString(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	return cast.ToString(v), true
}

// Data is an array buffer that can back a Variable: either a plain
// *sparse.DenseArray or a *units.Quantity wrapping one.
type Data interface {
	GetShape() []int
}

// axisTaker is implemented by buffer types that can subset themselves
// along an axis (notably *units.Quantity).
type axisTaker interface {
	TakeAxis(axis int, positions []int) interface{}
}

// A Variable is an array buffer plus an ordered list of dimension names
// and an attribute mapping. The number of dimension names always equals
// the rank of the buffer.
type Variable struct {
	dims  []string
	data  Data
	attrs Attributes
}

// NewVariable creates a Variable, enforcing that len(dims) matches the
// rank of data.
func NewVariable(dims []string, data Data, attrs Attributes) (*Variable, error) {
	if data == nil {
		return nil, fmt.Errorf("labarray: variable %v has no data", dims)
	}
	if len(dims) != len(data.GetShape()) {
		return nil, fmt.Errorf("labarray: %d dimension names for rank-%d data (%v vs %v)",
			len(dims), len(data.GetShape()), dims, data.GetShape())
	}
	return &Variable{dims: dims, data: data, attrs: attrs.Copy()}, nil
}

// Dims returns the dimension names of v. The returned slice must not be
// modified.
func (v *Variable) Dims() []string { return v.dims }

// Data returns the array buffer of v.
func (v *Variable) Data() Data { return v.data }

// Attrs returns the attributes of v. The returned map must not be
// modified; use Copy first.
func (v *Variable) Attrs() Attributes { return v.attrs }

// Shape returns the shape of v's buffer.
func (v *Variable) Shape() []int { return v.data.GetShape() }

// Copy returns a new Variable with the same dimension names, a copy of
// the attributes, and the given data. The data must have the same rank
// as v.
func (v *Variable) Copy(data Data) *Variable {
	return &Variable{dims: v.dims, data: data, attrs: v.attrs.Copy()}
}

// CopyWithAttrs is like Copy but also replaces the attributes.
func (v *Variable) CopyWithAttrs(data Data, attrs Attributes) *Variable {
	return &Variable{dims: v.dims, data: data, attrs: attrs.Copy()}
}

// HasDim reports whether dim is one of v's dimensions.
func (v *Variable) HasDim(dim string) bool {
	for _, d := range v.dims {
		if d == dim {
			return true
		}
	}
	return false
}

// takeAxis subsets data along axis, dispatching on the buffer type.
func takeAxis(data Data, axis int, positions []int) (Data, error) {
	switch t := data.(type) {
	case *sparse.DenseArray:
		return units.DenseTakeAxis(t, axis, positions), nil
	case axisTaker:
		out, ok := t.TakeAxis(axis, positions).(Data)
		if !ok {
			return nil, fmt.Errorf("labarray: %T.TakeAxis did not return an array buffer", t)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("labarray: cannot subset data of type %T", data)
	}
}

// isel returns a copy of v subset to positions along dim. Variables that
// do not have dim are returned unchanged.
func (v *Variable) isel(dim string, positions []int) (*Variable, error) {
	axis := -1
	for i, d := range v.dims {
		if d == dim {
			axis = i
			break
		}
	}
	if axis < 0 {
		return v, nil
	}
	data, err := takeAxis(v.data, axis, positions)
	if err != nil {
		return nil, err
	}
	return v.Copy(data), nil
}

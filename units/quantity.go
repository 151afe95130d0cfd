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

package units

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// A Quantity pairs a dense array buffer with a Unit. The buffer is never
// mutated through the quantity: conversion allocates a new buffer.
type Quantity struct {
	data *sparse.DenseArray
	unit *Unit
}

// NewQuantity wraps data in a quantity with unit u. The buffer is not
// copied.
func NewQuantity(data *sparse.DenseArray, u *Unit) *Quantity {
	return &Quantity{data: data, unit: u}
}

// Scalar returns a zero-dimensional quantity holding a single value.
func Scalar(v float64, u *Unit) *Quantity {
	d := sparse.ZerosDense()
	d.Elements[0] = v
	return &Quantity{data: d, unit: u}
}

// Dense returns a one-dimensional dense array holding vals. It is a
// convenience for building variables and test fixtures.
func Dense(vals ...float64) *sparse.DenseArray {
	d := sparse.ZerosDense(len(vals))
	copy(d.Elements, vals)
	return d
}

// Magnitude returns the underlying buffer, without units.
func (q *Quantity) Magnitude() *sparse.DenseArray { return q.data }

// Unit returns the unit of q.
func (q *Quantity) Unit() *Unit { return q.unit }

// GetShape returns the shape of the underlying buffer.
func (q *Quantity) GetShape() []int { return q.data.GetShape() }

// ScalarValue returns the single element of a zero-dimensional or
// one-element quantity.
func (q *Quantity) ScalarValue() (float64, error) {
	if len(q.data.Elements) != 1 {
		return 0, fmt.Errorf("quantity with shape %v is not a scalar", q.data.GetShape())
	}
	return q.data.Elements[0], nil
}

// To converts q to the unit u, returning a new quantity with a new
// buffer. It returns a *DimensionalityError if the dimensions of q and u
// do not match.
func (q *Quantity) To(u *Unit) (*Quantity, error) {
	if !q.unit.Compatible(u) {
		return nil, &DimensionalityError{From: q.unit, To: u}
	}
	out := q.data.Copy()
	if c := q.unit.factor / u.factor; c != 1 {
		floats.Scale(c, out.Elements)
	}
	return &Quantity{data: out, unit: u}, nil
}

// Convert is like To but accepts a unit expression, resolved through the
// registry that owns q's unit.
func (q *Quantity) Convert(expr string) (*Quantity, error) {
	u, err := q.unit.Registry().Parse(expr)
	if err != nil {
		return nil, err
	}
	return q.To(u)
}

// ToBase converts q to the SI unit with the same dimensions.
func (q *Quantity) ToBase() *Quantity {
	out, err := q.To(q.unit.Base())
	if err != nil {
		panic(err) // base units always have matching dimensions
	}
	return out
}

// TakeAxis returns a new quantity holding the elements of q at the given
// positions along axis, preserving the unit. The result is always a
// *Quantity; the return type is interface{} so that container packages
// can treat wrapped and plain buffers uniformly.
func (q *Quantity) TakeAxis(axis int, positions []int) interface{} {
	return &Quantity{data: DenseTakeAxis(q.data, axis, positions), unit: q.unit}
}

// DenseTakeAxis returns a new array holding the elements of d at the
// given positions along axis. A position of -1 selects a NaN fill value.
func DenseTakeAxis(d *sparse.DenseArray, axis int, positions []int) *sparse.DenseArray {
	shape := d.GetShape()
	outShape := make([]int, len(shape))
	copy(outShape, shape)
	outShape[axis] = len(positions)
	out := sparse.ZerosDense(outShape...)

	idx := make([]int, len(shape))
	srcIdx := make([]int, len(shape))
	for i := range out.Elements {
		// unravel i into the output index vector
		rem := i
		for j := len(outShape) - 1; j >= 0; j-- {
			idx[j] = rem % outShape[j]
			rem /= outShape[j]
		}
		copy(srcIdx, idx)
		p := positions[idx[axis]]
		if p < 0 {
			out.Elements[i] = math.NaN()
			continue
		}
		srcIdx[axis] = p
		out.Elements[i] = d.Get(srcIdx...)
	}
	return out
}

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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		expr   string
		factor float64
	}{
		{"m", 1},
		{"dm", 0.1},
		{"km", 1000},
		{"ug", 1e-9},
		{"ug/m3", 1e-9},
		{"kg m-2 s-1", 1},
		{"m/s^2", 1},
		{"m/s**2", 1},
		{"h", 3600},
		{"d", 86400}, // a day, not a deci-anything
		{"min", 60},
		{"%", 0.01},
		{"1", 1},
		{"", 1},
		{"W/m2", 1},
		{"L", 1e-3},
	}
	for _, test := range tests {
		u, err := r.Parse(test.expr)
		require.NoError(t, err, test.expr)
		assert.InDelta(t, test.factor, u.Factor(), test.factor*1e-12, test.expr)
	}
}

func TestParseErrors(t *testing.T) {
	r := NewRegistry()
	for _, expr := range []string{"bogus", "m/", "m^x", "x3q/"} {
		_, err := r.Parse(expr)
		assert.Error(t, err, expr)
	}
}

func TestEqualCompatible(t *testing.T) {
	r := NewRegistry()
	m := r.MustParse("m")
	dm := r.MustParse("dm")
	s := r.MustParse("s")

	assert.False(t, m.Equal(dm))
	assert.True(t, m.Compatible(dm))
	assert.False(t, m.Compatible(s))
	assert.True(t, m.Equal(r.MustParse("m")))
	assert.True(t, r.MustParse("1").IsDimensionless())
	assert.False(t, m.IsDimensionless())
}

func TestQuantityTo(t *testing.T) {
	r := NewRegistry()
	q := NewQuantity(Dense(1, 2, 3), r.MustParse("m"))

	conv, err := q.To(r.MustParse("dm"))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, conv.Magnitude().Elements)
	// the original buffer is untouched
	assert.Equal(t, []float64{1, 2, 3}, q.Magnitude().Elements)

	_, err = q.To(r.MustParse("s"))
	var dimErr *DimensionalityError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, "m", dimErr.From.String())
}

func TestQuantityConvert(t *testing.T) {
	r := NewRegistry()
	q := NewQuantity(Dense(1500), r.MustParse("g"))
	conv, err := q.Convert("kg")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, conv.Magnitude().Elements[0], 1e-12)

	_, err = q.Convert("bogus")
	assert.Error(t, err)
}

func TestScalar(t *testing.T) {
	r := NewRegistry()
	q := Scalar(2.5, r.MustParse("km"))
	v, err := q.ScalarValue()
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = NewQuantity(Dense(1, 2), r.MustParse("m")).ScalarValue()
	assert.Error(t, err)
}

func TestToBase(t *testing.T) {
	r := NewRegistry()
	q := NewQuantity(Dense(3), r.MustParse("km"))
	base := q.ToBase()
	assert.Equal(t, []float64{3000}, base.Magnitude().Elements)
	assert.True(t, base.Unit().Equal(r.MustParse("m")))
}

func TestDenseTakeAxis(t *testing.T) {
	d := Dense(1, 2, 3, 4)
	out := DenseTakeAxis(d, 0, []int{2, 0})
	assert.Equal(t, []float64{3, 1}, out.Elements)

	filled := DenseTakeAxis(d, 0, []int{1, -1})
	assert.Equal(t, 2.0, filled.Elements[0])
	assert.True(t, math.IsNaN(filled.Elements[1]))
}

func TestTakeAxisKeepsUnit(t *testing.T) {
	r := NewRegistry()
	q := NewQuantity(Dense(1, 2, 3), r.MustParse("m"))
	out, ok := q.TakeAxis(0, []int{1}).(*Quantity)
	require.True(t, ok)
	assert.Equal(t, []float64{2}, out.Magnitude().Elements)
	assert.True(t, out.Unit().Equal(q.Unit()))
}

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
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"

	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/units"
)

func mustVariable(t *testing.T, dims []string, data labarray.Data, attrs labarray.Attributes) *labarray.Variable {
	t.Helper()
	v, err := labarray.NewVariable(dims, data, attrs)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// testDataset returns a dataset with data variables a (meters) and
// b (seconds), unit information in attributes.
func testDataset(t *testing.T) *labarray.Dataset {
	t.Helper()
	ds, err := labarray.NewDataset(
		map[string]*labarray.Variable{
			"a": mustVariable(t, []string{"x"}, units.Dense(0, 1), labarray.Attributes{"units": "m"}),
			"b": mustVariable(t, []string{"x"}, units.Dense(2, 4), labarray.Attributes{"units": "s"}),
		},
		nil, nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

// testDataArray returns an unnamed array in meters over a decimeter
// coordinate x = [10, 20, 30].
func testDataArray(t *testing.T) *labarray.DataArray {
	t.Helper()
	v := mustVariable(t, []string{"x"}, units.Dense(1, 2, 3), labarray.Attributes{"units": "m"})
	x := mustVariable(t, []string{"x"}, units.Dense(10, 20, 30), labarray.Attributes{"units": "dm"})
	da, err := labarray.NewDataArray("", v, map[string]*labarray.Variable{"x": x})
	if err != nil {
		t.Fatal(err)
	}
	return da
}

func dataElements(t *testing.T, v *labarray.Variable) []float64 {
	t.Helper()
	switch d := v.Data().(type) {
	case *sparse.DenseArray:
		return d.Elements
	case *units.Quantity:
		return d.Magnitude().Elements
	default:
		t.Fatalf("unexpected data type %T", v.Data())
		return nil
	}
}

func TestAttachUnits(t *testing.T) {
	reg := units.DefaultRegistry()
	m := reg.MustParse("m")
	v := mustVariable(t, []string{"x"}, units.Dense(1, 2), nil)

	out, err := AttachUnits(v, map[string]interface{}{"": m})
	if err != nil {
		t.Fatal(err)
	}
	q, ok := out.(*labarray.Variable).Data().(*units.Quantity)
	if !ok {
		t.Fatalf("expected quantity, got %T", out.(*labarray.Variable).Data())
	}
	if !q.Unit().Equal(m) {
		t.Errorf("unit = %v, want m", q.Unit())
	}

	// Attaching the same unit again is a no-op.
	if _, err := AttachUnits(out, map[string]interface{}{"": m}); err != nil {
		t.Errorf("re-attaching the same unit: %v", err)
	}

	// Attaching a different unit fails.
	_, err = AttachUnits(out, map[string]interface{}{"": reg.MustParse("dm")})
	var aggErr *AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	var hasErr *AlreadyHasUnitsError
	if !errors.As(aggErr.Entries[0].Err, &hasErr) {
		t.Errorf("expected *AlreadyHasUnitsError, got %v", aggErr.Entries[0].Err)
	}
}

func TestAttachUnitsInvalid(t *testing.T) {
	v := mustVariable(t, []string{"x"}, units.Dense(1), nil)
	_, err := AttachUnits(v, map[string]interface{}{"": 42})
	var aggErr *AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	var invErr *InvalidUnitError
	if !errors.As(aggErr.Entries[0].Err, &invErr) {
		t.Errorf("expected *InvalidUnitError, got %v", aggErr.Entries[0].Err)
	}
}

func TestQuantifyDequantifyRoundTrip(t *testing.T) {
	da := testDataArray(t)

	q, err := Quantify(da, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	qda := q.(*labarray.DataArray)
	if qda.Name() != "" {
		t.Errorf("name = %q, want the empty string", qda.Name())
	}
	if _, ok := qda.Variable().Data().(*units.Quantity); !ok {
		t.Fatalf("main variable not quantified: %T", qda.Variable().Data())
	}
	if _, ok := qda.Variable().Attrs()["units"]; ok {
		t.Error("units attribute should move into the wrapper")
	}
	// The coordinate backs an index, so it stays plain with its unit in
	// the attribute, and the index becomes unit-aware.
	if _, ok := qda.Coords()["x"].Data().(*units.Quantity); ok {
		t.Error("index coordinate must not be wrapped")
	}
	if _, ok := qda.Indexes()["x"].(*UnitIndex); !ok {
		t.Errorf("index for x is %T, want *UnitIndex", qda.Indexes()["x"])
	}

	d, err := Dequantify(q)
	if err != nil {
		t.Fatal(err)
	}
	dda := d.(*labarray.DataArray)
	if dda.Name() != "" {
		t.Errorf("round-tripped name = %q, want the empty string", dda.Name())
	}
	if got, _ := dda.Variable().Attrs().GetString("units"); got != "m" {
		t.Errorf("round-tripped units attribute = %q, want %q", got, "m")
	}
	if got := dataElements(t, dda.Variable()); !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Errorf("round-tripped data = %v", got)
	}
}

func TestToConvertsComponents(t *testing.T) {
	ds := testDataset(t)
	q, err := Quantify(ds, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	out, err := To(q, map[string]interface{}{"a": "mm", "b": "ms"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	conv := out.(*labarray.Dataset)
	a, _ := conv.Variable("a")
	if got := dataElements(t, a); !reflect.DeepEqual(got, []float64{0, 1000}) {
		t.Errorf("a = %v, want [0 1000]", got)
	}
	b, _ := conv.Variable("b")
	if got := dataElements(t, b); !reflect.DeepEqual(got, []float64{2000, 4000}) {
		t.Errorf("b = %v, want [2000 4000]", got)
	}

	// The input is unchanged.
	origA, _ := q.(*labarray.Dataset).Variable("a")
	if got := dataElements(t, origA); !reflect.DeepEqual(got, []float64{0, 1}) {
		t.Errorf("input mutated: a = %v", got)
	}
}

func TestToAggregatesFailures(t *testing.T) {
	ds := testDataset(t)
	q, err := Quantify(ds, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Both components are dimensionally incompatible with their target:
	// every failure must be reported, not just the first.
	_, err = To(q, map[string]interface{}{"a": "s", "b": "m"}, nil)
	var aggErr *AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	if got := aggErr.Failed(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("failed components = %v, want [a b]", got)
	}
	for _, entry := range aggErr.Entries {
		var dimErr *units.DimensionalityError
		if !errors.As(entry.Err, &dimErr) {
			t.Errorf("entry %q: expected *units.DimensionalityError, got %v", entry.Name, entry.Err)
		}
	}
}

func TestToParseFailure(t *testing.T) {
	ds := testDataset(t)
	q, err := Quantify(ds, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = To(q, map[string]interface{}{"b": "bogus"}, nil)
	var aggErr *AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	if got := aggErr.Failed(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("failed components = %v, want [b]", got)
	}
}

func TestUnitAwareSel(t *testing.T) {
	reg := units.DefaultRegistry()
	q, err := Quantify(testDataArray(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// 2 m is 20 dm, the second label.
	out, err := Sel(q, map[string]interface{}{"x": units.Scalar(2, reg.MustParse("m"))})
	if err != nil {
		t.Fatal(err)
	}
	got := dataElements(t, out.(*labarray.DataArray).Variable())
	if !reflect.DeepEqual(got, []float64{2}) {
		t.Errorf("selected data = %v, want [2]", got)
	}

	// A plain label is used as-is.
	out, err = Sel(q, map[string]interface{}{"x": 30.0})
	if err != nil {
		t.Fatal(err)
	}
	got = dataElements(t, out.(*labarray.DataArray).Variable())
	if !reflect.DeepEqual(got, []float64{3}) {
		t.Errorf("selected data = %v, want [3]", got)
	}

	// A label with incompatible dimensions cannot be converted.
	_, err = Sel(q, map[string]interface{}{"x": units.Scalar(2, reg.MustParse("kg"))})
	var aggErr *AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
}

func TestUnitAwareSelSlice(t *testing.T) {
	reg := units.DefaultRegistry()
	q, err := Quantify(testDataArray(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// [1 m, 2 m] is [10 dm, 20 dm]: the first two labels.
	out, err := Sel(q, map[string]interface{}{"x": labarray.Slice{
		Start: units.Scalar(1, reg.MustParse("m")),
		Stop:  units.Scalar(2, reg.MustParse("m")),
	}})
	if err != nil {
		t.Fatal(err)
	}
	got := dataElements(t, out.(*labarray.DataArray).Variable())
	if !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("selected data = %v, want [1 2]", got)
	}
}

func TestUnitAwareDropSel(t *testing.T) {
	reg := units.DefaultRegistry()
	q, err := Quantify(testDataArray(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DropSel(q, map[string]interface{}{"x": units.Scalar(2, reg.MustParse("m"))})
	if err != nil {
		t.Fatal(err)
	}
	got := dataElements(t, out.(*labarray.DataArray).Variable())
	if !reflect.DeepEqual(got, []float64{1, 3}) {
		t.Errorf("remaining data = %v, want [1 3]", got)
	}
}

func TestUnitAwareReindex(t *testing.T) {
	reg := units.DefaultRegistry()
	q, err := Quantify(testDataArray(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// 3 m and 5 m are 30 dm and 50 dm: one match, one fill.
	labels := units.NewQuantity(units.Dense(3, 5), reg.MustParse("m"))
	out, err := Reindex(q, map[string]interface{}{"x": labels})
	if err != nil {
		t.Fatal(err)
	}
	got := dataElements(t, out.(*labarray.DataArray).Variable())
	if got[0] != 3 {
		t.Errorf("matched value = %v, want 3", got[0])
	}
	if !math.IsNaN(got[1]) {
		t.Errorf("fill value = %v, want NaN", got[1])
	}
}

func TestSelAcrossDimensions(t *testing.T) {
	reg := units.DefaultRegistry()
	conc := sparse.ZerosDense(3, 2)
	copy(conc.Elements, []float64{1, 2, 3, 4, 5, 6})
	ds, err := labarray.NewDataset(
		map[string]*labarray.Variable{
			"v": mustVariable(t, []string{"x", "y"}, conc, nil),
		},
		map[string]*labarray.Variable{
			"x": mustVariable(t, []string{"x"}, units.Dense(10, 20, 30), labarray.Attributes{"units": "dm"}),
			"y": mustVariable(t, []string{"y"}, units.Dense(60, 120), labarray.Attributes{"units": "s"}),
		},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	q, err := Quantify(ds, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// 3 m is 30 dm; 60 s is itself.
	out, err := Sel(q, map[string]interface{}{
		"x": units.Scalar(3, reg.MustParse("m")),
		"y": units.Scalar(60, reg.MustParse("s")),
	})
	if err != nil {
		t.Fatal(err)
	}
	sel := out.(*labarray.Dataset)
	v, _ := sel.Variable("v")
	if got := dataElements(t, v); !reflect.DeepEqual(got, []float64{5}) {
		t.Errorf("selected v = %v, want [5]", got)
	}
	x, _ := sel.Variable("x")
	if got := dataElements(t, x); !reflect.DeepEqual(got, []float64{30}) {
		t.Errorf("selected x = %v, want [30]", got)
	}
	if u, _ := x.Attrs().GetString("units"); u != "dm" {
		t.Errorf("x units = %q, want dm", u)
	}
	y, _ := sel.Variable("y")
	if u, _ := y.Attrs().GetString("units"); u != "s" {
		t.Errorf("y units = %q, want s", u)
	}

	// Selecting a length-labeled dimension with a time fails.
	if _, err := Sel(q, map[string]interface{}{"x": units.Scalar(3, reg.MustParse("s"))}); err == nil {
		t.Error("selecting x with seconds should fail")
	}
}

func TestQuantifyKeepsHierarchicalIndex(t *testing.T) {
	a := mustVariable(t, []string{"obs"}, units.Dense(1, 2, 3), labarray.Attributes{"units": "m"})
	site := mustVariable(t, []string{"obs"}, units.Dense(1, 1, 2), nil)
	when := mustVariable(t, []string{"obs"}, units.Dense(0, 1, 0), nil)
	ds, err := labarray.NewDataset(
		map[string]*labarray.Variable{"a": a},
		map[string]*labarray.Variable{"site": site, "when": when},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	mix, err := labarray.NewMultiIndex("obs", []string{"site", "when"}, map[string][]float64{
		"site": {1, 1, 2},
		"when": {0, 1, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	ds = ds.SetIndex("obs", mix)

	q, err := Quantify(ds, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	qds := q.(*labarray.Dataset)
	if !qds.HasMultiIndex("site") {
		t.Fatal("hierarchical index lost during quantification")
	}

	// Selection through the hierarchical index still works afterwards.
	out, err := Sel(q, map[string]interface{}{"obs": map[string]float64{"site": 1, "when": 1}})
	if err != nil {
		t.Fatal(err)
	}
	av, _ := out.(*labarray.Dataset).Variable("a")
	if got := dataElements(t, av); !reflect.DeepEqual(got, []float64{2}) {
		t.Errorf("selected a = %v, want [2]", got)
	}

	// Converting while naming a level leaves the level untouched.
	conv, err := To(q, map[string]interface{}{"a": "mm", "site": "mm"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	cds := conv.(*labarray.Dataset)
	if !cds.HasMultiIndex("site") {
		t.Error("hierarchical index lost during conversion")
	}
	sv, _ := cds.Variable("site")
	if got := dataElements(t, sv); !reflect.DeepEqual(got, []float64{1, 1, 2}) {
		t.Errorf("level values = %v, want [1 1 2] untouched", got)
	}
	ca, _ := cds.Variable("a")
	if got := dataElements(t, ca); !reflect.DeepEqual(got, []float64{1000, 2000, 3000}) {
		t.Errorf("converted a = %v, want [1000 2000 3000]", got)
	}
}

func TestSelUnitlessDimension(t *testing.T) {
	reg := units.DefaultRegistry()
	v := mustVariable(t, []string{"x"}, units.Dense(1, 2, 3), labarray.Attributes{"units": "m"})
	x := mustVariable(t, []string{"x"}, units.Dense(1, 2, 3), nil)
	da, err := labarray.NewDataArray("", v, map[string]*labarray.Variable{"x": x})
	if err != nil {
		t.Fatal(err)
	}
	q, err := Quantify(da, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The labels carry no unit, so a unit-bearing label is stripped to
	// its magnitude as given.
	out, err := Sel(q, map[string]interface{}{"x": units.Scalar(2, reg.MustParse("m"))})
	if err != nil {
		t.Fatal(err)
	}
	got := dataElements(t, out.(*labarray.DataArray).Variable())
	if !reflect.DeepEqual(got, []float64{2}) {
		t.Errorf("selected data = %v, want [2]", got)
	}

	// Same for slice bounds.
	out, err = Sel(q, map[string]interface{}{"x": labarray.Slice{
		Start: units.Scalar(1, reg.MustParse("m")),
		Stop:  units.Scalar(2, reg.MustParse("m")),
	}})
	if err != nil {
		t.Fatal(err)
	}
	got = dataElements(t, out.(*labarray.DataArray).Variable())
	if !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("selected data = %v, want [1 2]", got)
	}

	// Bounds that disagree dimensionally are still rejected.
	_, err = Sel(q, map[string]interface{}{"x": labarray.Slice{
		Start: units.Scalar(1, reg.MustParse("m")),
		Stop:  units.Scalar(2, reg.MustParse("s")),
	}})
	var aggErr *AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
}

func TestCalendarUnitsExempt(t *testing.T) {
	timeCoord := mustVariable(t, []string{"time"}, units.Dense(0, 3600, 7200),
		labarray.Attributes{"units": "seconds since 2010-01-01 00:00:00"})
	a := mustVariable(t, []string{"time"}, units.Dense(1, 2, 3), labarray.Attributes{"units": "K"})
	ds, err := labarray.NewDataset(
		map[string]*labarray.Variable{"a": a},
		map[string]*labarray.Variable{"time": timeCoord},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	q, err := Quantify(ds, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	qds := q.(*labarray.Dataset)
	tc, _ := qds.Variable("time")
	if _, ok := tc.Data().(*units.Quantity); ok {
		t.Error("temporal coordinate must not be quantified")
	}
	if _, ok := qds.Indexes()["time"].(*UnitIndex); ok {
		t.Error("temporal coordinate must not get a unit-aware index")
	}

	// The attribute survives stripping and is not extracted.
	stripped, err := StripUnitAttributes(ds)
	if err != nil {
		t.Fatal(err)
	}
	sc, _ := stripped.(*labarray.Dataset).Variable("time")
	if got, _ := sc.Attrs().GetString("units"); got != "seconds since 2010-01-01 00:00:00" {
		t.Errorf("temporal units attribute = %q, want it kept", got)
	}
	sa, _ := stripped.(*labarray.Dataset).Variable("a")
	if _, ok := sa.Attrs()["units"]; ok {
		t.Error("physical units attribute should be stripped")
	}

	extracted, err := ExtractUnitAttributes(ds)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := extracted["time"]; ok {
		t.Error("temporal units attribute should not be extracted")
	}
	if extracted["a"] != "K" {
		t.Errorf(`extracted["a"] = %v, want "K"`, extracted["a"])
	}
}

func TestToBaseUnits(t *testing.T) {
	v := mustVariable(t, []string{"x"}, units.Dense(1, 2), labarray.Attributes{"units": "km"})
	q, err := Quantify(v, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ToBaseUnits(q, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := dataElements(t, out.(*labarray.Variable))
	if !reflect.DeepEqual(got, []float64{1000, 2000}) {
		t.Errorf("base-unit data = %v, want [1000 2000]", got)
	}
}

func TestCheckUnits(t *testing.T) {
	ds := testDataset(t)
	q, err := Quantify(ds, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := CheckUnits(q, map[string]interface{}{"a": "m", "b": "s"}, nil); err != nil {
		t.Errorf("matching units reported as mismatch: %v", err)
	}

	err = CheckUnits(q, map[string]interface{}{"a": "dm", "b": "s"}, nil)
	var aggErr *AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	if got := aggErr.Failed(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("failed components = %v, want [a]", got)
	}
}

func TestExtractStripUnits(t *testing.T) {
	ds := testDataset(t)
	q, err := Quantify(ds, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	um, err := ExtractUnits(q)
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := um["a"].(*units.Unit); !ok || u.String() != "m" {
		t.Errorf(`units["a"] = %v, want m`, um["a"])
	}

	stripped, err := StripUnits(q)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := stripped.(*labarray.Dataset).Variable("a")
	if _, ok := a.Data().(*sparse.DenseArray); !ok {
		t.Errorf("stripped data is %T, want *sparse.DenseArray", a.Data())
	}
}

func TestUnknownEntity(t *testing.T) {
	_, err := AttachUnits(42, nil)
	var unkErr *UnknownEntityError
	if !errors.As(err, &unkErr) {
		t.Errorf("expected *UnknownEntityError, got %v", err)
	}
}

func TestFormatUnits(t *testing.T) {
	q, err := Quantify(testDataArray(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := FormatUnits(q)
	if err != nil {
		t.Fatal(err)
	}
	want := "<unnamed>: m\nx: dm\n"
	if s != want {
		t.Errorf("FormatUnits = %q, want %q", s, want)
	}
}

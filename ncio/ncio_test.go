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

package ncio

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"

	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/units"
)

func roundTripDataset(t *testing.T) *labarray.Dataset {
	t.Helper()
	x, err := labarray.NewVariable([]string{"x"}, units.Dense(10, 20, 30),
		labarray.Attributes{"units": "dm"})
	if err != nil {
		t.Fatal(err)
	}
	conc := sparse.ZerosDense(3, 2)
	copy(conc.Elements, []float64{1, 2, 3, 4, 5, 6})
	v, err := labarray.NewVariable([]string{"x", "y"}, conc,
		labarray.Attributes{"units": "ug/m3", "description": "pollutant concentration"})
	if err != nil {
		t.Fatal(err)
	}
	ds, err := labarray.NewDataset(
		map[string]*labarray.Variable{"conc": v},
		map[string]*labarray.Variable{"x": x},
		labarray.Attributes{"title": "round trip"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestRoundTrip(t *testing.T) {
	ds := roundTripDataset(t)
	path := filepath.Join(t.TempDir(), "roundtrip.nc")

	if err := WriteFile(path, ds); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	conc, ok := got.Variable("conc")
	if !ok {
		t.Fatal("missing variable conc")
	}
	if gotDims := conc.Dims(); !reflect.DeepEqual(gotDims, []string{"x", "y"}) {
		t.Errorf("conc dims = %v, want [x y]", gotDims)
	}
	d := conc.Data().(*sparse.DenseArray)
	if !reflect.DeepEqual(d.Elements, []float64{1, 2, 3, 4, 5, 6}) {
		t.Errorf("conc data = %v", d.Elements)
	}
	if u, _ := conc.Attrs().GetString("units"); u != "ug/m3" {
		t.Errorf("conc units = %q, want ug/m3", u)
	}

	if !got.IsCoord("x") {
		t.Error("x should come back as a coordinate")
	}
	x, _ := got.Variable("x")
	if u, _ := x.Attrs().GetString("units"); u != "dm" {
		t.Errorf("x units = %q, want dm", u)
	}
	if title, _ := got.Attrs().GetString("title"); title != "round trip" {
		t.Errorf("title = %q, want %q", title, "round trip")
	}
	if _, ok := got.Index("x"); !ok {
		t.Error("coordinate x should back a label index")
	}
}

func TestWriteRejectsQuantified(t *testing.T) {
	reg := units.NewRegistry()
	v, err := labarray.NewVariable([]string{"x"},
		units.NewQuantity(units.Dense(1, 2), reg.MustParse("m")), nil)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := labarray.NewDataset(map[string]*labarray.Variable{"a": v}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "bad.nc")
	if err := WriteFile(path, ds); err == nil {
		t.Error("writing a quantified dataset should fail")
	}
}

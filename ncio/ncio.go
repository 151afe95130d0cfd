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

// Package ncio reads and writes labarray Datasets as NetCDF files.
// Units travel as "units" string attributes, so datasets must be
// dequantified before writing, and come back ready for Quantify after
// reading.
package ncio

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spf13/cast"

	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/units"
)

// Read reads a NetCDF dataset from r. One-dimensional variables named
// after their own dimension become coordinates; everything else becomes
// a data variable. All attributes are carried along, including "units".
func Read(r cdf.ReaderWriterAt) (*labarray.Dataset, error) {
	cf, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("ncio: opening NetCDF file: %v", err)
	}

	dataVars := make(map[string]*labarray.Variable)
	coords := make(map[string]*labarray.Variable)
	for _, name := range cf.Header.Variables() {
		dims := cf.Header.Dimensions(name)
		shape := cf.Header.Lengths(name)

		rr := cf.Reader(name, nil, nil)
		buf := rr.Zero(-1)
		if _, err := rr.Read(buf); err != nil {
			return nil, fmt.Errorf("ncio: reading variable %q: %v", name, err)
		}
		data, err := toDense(buf, shape)
		if err != nil {
			return nil, fmt.Errorf("ncio: reading variable %q: %v", name, err)
		}

		attrs := make(labarray.Attributes)
		for _, a := range cf.Header.Attributes(name) {
			attrs[a] = cf.Header.GetAttribute(name, a)
		}
		v, err := labarray.NewVariable(dims, data, attrs)
		if err != nil {
			return nil, fmt.Errorf("ncio: reading variable %q: %v", name, err)
		}
		if len(dims) == 1 && dims[0] == name {
			coords[name] = v
		} else {
			dataVars[name] = v
		}
	}

	attrs := make(labarray.Attributes)
	for _, a := range cf.Header.Attributes("") {
		attrs[a] = cf.Header.GetAttribute("", a)
	}
	ds, err := labarray.NewDataset(dataVars, coords, attrs)
	if err != nil {
		return nil, fmt.Errorf("ncio: assembling dataset: %v", err)
	}
	return ds, nil
}

// ReadFile reads a NetCDF dataset from the file at path.
func ReadFile(path string) (*labarray.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ncio: opening %s: %v", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Write writes ds to w as a NetCDF file. The dataset must be
// dequantified: wrapped buffers cannot be serialized, their units
// belong in the "units" attribute.
func Write(w cdf.ReaderWriterAt, ds *labarray.Dataset) error {
	names := ds.VariableNames()
	for _, name := range names {
		v, _ := ds.Variable(name)
		if _, ok := v.Data().(*units.Quantity); ok {
			return fmt.Errorf("ncio: variable %q still holds a quantity; dequantify the dataset before writing", name)
		}
	}

	dimSizes := ds.Dims()
	dims := make([]string, 0, len(dimSizes))
	for d := range dimSizes {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	lengths := make([]int, len(dims))
	for i, d := range dims {
		lengths[i] = dimSizes[d]
	}

	h := cdf.NewHeader(dims, lengths)
	for _, name := range names {
		v, _ := ds.Variable(name)
		h.AddVariable(name, v.Dims(), []float64{0})
		for _, a := range sortedAttrKeys(v.Attrs()) {
			h.AddAttribute(name, a, cast.ToString(v.Attrs()[a]))
		}
	}
	for _, a := range sortedAttrKeys(ds.Attrs()) {
		h.AddAttribute("", a, cast.ToString(ds.Attrs()[a]))
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("ncio: invalid NetCDF header: %v", errs)
	}

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("ncio: creating NetCDF file: %v", err)
	}
	for _, name := range names {
		v, _ := ds.Variable(name)
		d, ok := v.Data().(*sparse.DenseArray)
		if !ok {
			return fmt.Errorf("ncio: variable %q holds %T, not a dense array", name, v.Data())
		}
		begin := make([]int, len(v.Dims()))
		wr := f.Writer(name, begin, v.Shape())
		if _, err := wr.Write(d.Elements); err != nil {
			return fmt.Errorf("ncio: writing variable %q: %v", name, err)
		}
	}
	return nil
}

// WriteFile writes ds to a NetCDF file at path, replacing any existing
// file.
func WriteFile(path string, ds *labarray.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ncio: creating %s: %v", path, err)
	}
	defer f.Close()
	if err := Write(f, ds); err != nil {
		return err
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("ncio: finalizing %s: %v", path, err)
	}
	return nil
}

// toDense converts a typed buffer read from a NetCDF variable into a
// dense array with the given shape.
func toDense(buf interface{}, shape []int) (*sparse.DenseArray, error) {
	out := sparse.ZerosDense(shape...)
	switch t := buf.(type) {
	case []float64:
		copy(out.Elements, t)
	case []float32:
		for i, v := range t {
			out.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range t {
			out.Elements[i] = float64(v)
		}
	case []int16:
		for i, v := range t {
			out.Elements[i] = float64(v)
		}
	case []int8:
		for i, v := range t {
			out.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unsupported NetCDF data type %T", buf)
	}
	return out, nil
}

func sortedAttrKeys(attrs labarray.Attributes) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

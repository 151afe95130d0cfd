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
)

// temporaryName is the reserved component key used for the main variable
// of a bare Variable or a single-variable array while it passes through
// the bulk engine. The rename is applied once on entry and undone once
// on exit, so the engine itself only ever sees stable keys.
const temporaryName = "<this-array>"

// componentClass tells the engine how a component participates in label
// indexes, which decides whether its unit lives on the data or in the
// "units" attribute side channel.
type componentClass int

const (
	plainComponent componentClass = iota
	// indexComponent is a coordinate backing a single-level label
	// index; its data can never be wrapped.
	indexComponent
	// multiIndexComponent is a level of a hierarchical index; it is
	// never converted at all.
	multiIndexComponent
)

// A component is one named piece of a container.
type component struct {
	name string
	v    *labarray.Variable
}

// An entity adapts one of the three container shapes to the bulk
// engine: it enumerates components in deterministic order, classifies
// them, normalizes spec keys on entry, renames reported keys back on
// exit, and reconstitutes a container of the same shape and identity.
type entity interface {
	components() []component
	class(name string) componentClass
	normalizeSpec(spec map[string]interface{}) map[string]interface{}
	renameKeys(m map[string]interface{}) map[string]interface{}
	rebuild(vars map[string]*labarray.Variable) (interface{}, error)
}

// asEntity dispatches over the closed set of container shapes.
func asEntity(obj interface{}) (entity, error) {
	switch t := obj.(type) {
	case *labarray.Variable:
		return variableEntity{v: t}, nil
	case *labarray.DataArray:
		return dataArrayEntity{da: t}, nil
	case *labarray.Dataset:
		return datasetEntity{ds: t}, nil
	default:
		return nil, &UnknownEntityError{Value: obj}
	}
}

type variableEntity struct {
	v *labarray.Variable
}

func (e variableEntity) components() []component {
	return []component{{name: temporaryName, v: e.v}}
}

func (e variableEntity) class(string) componentClass { return plainComponent }

func (e variableEntity) normalizeSpec(spec map[string]interface{}) map[string]interface{} {
	out := copySpec(spec)
	if v, ok := out[""]; ok {
		out[temporaryName] = v
		delete(out, "")
	}
	return out
}

func (e variableEntity) renameKeys(m map[string]interface{}) map[string]interface{} {
	return renameKey(m, temporaryName, "")
}

func (e variableEntity) rebuild(vars map[string]*labarray.Variable) (interface{}, error) {
	v, ok := vars[temporaryName]
	if !ok {
		return nil, fmt.Errorf("missing main variable after processing")
	}
	return v, nil
}

type dataArrayEntity struct {
	da *labarray.DataArray
}

func (e dataArrayEntity) components() []component {
	coords := e.da.Coords()
	out := make([]component, 0, len(coords)+1)
	out = append(out, component{name: temporaryName, v: e.da.Variable()})
	for _, name := range sortedKeys(coords) {
		out = append(out, component{name: name, v: coords[name]})
	}
	return out
}

func (e dataArrayEntity) class(name string) componentClass {
	for _, ix := range e.da.Indexes() {
		levels := ix.Levels()
		for _, l := range levels {
			if l != name {
				continue
			}
			if len(levels) > 1 {
				return multiIndexComponent
			}
			return indexComponent
		}
	}
	return plainComponent
}

// normalizeSpec rewrites the entry keyed by the array's own name (which
// may be empty, or collide with a coordinate) to the reserved key.
func (e dataArrayEntity) normalizeSpec(spec map[string]interface{}) map[string]interface{} {
	return renameKey(spec, e.da.Name(), temporaryName)
}

func (e dataArrayEntity) renameKeys(m map[string]interface{}) map[string]interface{} {
	return renameKey(m, temporaryName, e.da.Name())
}

func (e dataArrayEntity) rebuild(vars map[string]*labarray.Variable) (interface{}, error) {
	main, ok := vars[temporaryName]
	if !ok {
		return nil, fmt.Errorf("missing main variable after processing")
	}
	coords := make(map[string]*labarray.Variable, len(vars)-1)
	for name, v := range vars {
		if name != temporaryName {
			coords[name] = v
		}
	}
	da, err := labarray.NewDataArray(e.da.Name(), main, coords)
	if err != nil {
		return nil, err
	}
	for dim, ix := range carriedIndexes(e.da.Indexes(), da.Indexes()) {
		da = da.SetIndex(dim, ix)
	}
	return da, nil
}

type datasetEntity struct {
	ds *labarray.Dataset
}

func (e datasetEntity) components() []component {
	names := e.ds.VariableNames()
	out := make([]component, 0, len(names))
	for _, name := range names {
		v, _ := e.ds.Variable(name)
		out = append(out, component{name: name, v: v})
	}
	return out
}

func (e datasetEntity) class(name string) componentClass {
	switch {
	case e.ds.HasMultiIndex(name):
		return multiIndexComponent
	case e.ds.HasIndex(name):
		return indexComponent
	default:
		return plainComponent
	}
}

func (e datasetEntity) normalizeSpec(spec map[string]interface{}) map[string]interface{} {
	return copySpec(spec)
}

func (e datasetEntity) renameKeys(m map[string]interface{}) map[string]interface{} {
	return copySpec(m)
}

func (e datasetEntity) rebuild(vars map[string]*labarray.Variable) (interface{}, error) {
	dataVars := make(map[string]*labarray.Variable)
	coords := make(map[string]*labarray.Variable)
	for name, v := range vars {
		if e.ds.IsCoord(name) {
			coords[name] = v
		} else {
			dataVars[name] = v
		}
	}
	ds, err := labarray.NewDataset(dataVars, coords, e.ds.Attrs())
	if err != nil {
		return nil, err
	}
	for dim, ix := range carriedIndexes(e.ds.Indexes(), ds.Indexes()) {
		ds = ds.SetIndex(dim, ix)
	}
	return ds, nil
}

// carriedIndexes returns the indexes of the input container that
// default reconstruction cannot regenerate from the coordinates alone:
// hierarchical indexes, and any other index installed with SetIndex on
// a dimension that has no dimension coordinate. The levels of a
// hierarchical index pass through the engine untouched, so the input's
// index is still valid for the rebuilt container.
func carriedIndexes(old, fresh map[string]labarray.Index) map[string]labarray.Index {
	out := make(map[string]labarray.Index)
	for dim, ix := range old {
		if _, ok := fresh[dim]; !ok || len(ix.Levels()) > 1 {
			out[dim] = ix
		}
	}
	return out
}

func copySpec(spec map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(spec))
	for k, v := range spec {
		out[k] = v
	}
	return out
}

func renameKey(m map[string]interface{}, from, to string) map[string]interface{} {
	out := copySpec(m)
	if v, ok := out[from]; ok {
		delete(out, from)
		out[to] = v
	}
	return out
}

func sortedKeys(vars map[string]*labarray.Variable) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

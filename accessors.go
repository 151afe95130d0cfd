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
	"sort"

	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/units"
)

// Quantify attaches units to every component of obj, resolving them
// from spec where given and from the "units" attribute otherwise.
// Spec entries may be *units.Unit, strings parsed against reg, or a
// no-unit sentinel to keep a component unitless despite its attribute.
// Attributes that moved into a wrapper are removed; index-bearing
// coordinates keep theirs and their label indexes become unit-aware.
// A nil reg means the default registry.
//
// Parse failures are collected across all components before anything
// is attached.
func Quantify(obj interface{}, spec map[string]interface{}, reg *units.Registry) (interface{}, error) {
	if reg == nil {
		reg = units.DefaultRegistry()
	}
	ent, err := asEntity(obj)
	if err != nil {
		return nil, err
	}
	norm := ent.normalizeSpec(spec)
	resolved := make(map[string]interface{})
	var entries []ComponentError
	for _, c := range ent.components() {
		raw, have := norm[c.name]
		if !have {
			if s, ok := c.v.Attrs().GetString(unitsAttr); ok && !isCalendarUnits(s) {
				raw, have = s, true
			}
		}
		if !have || isNoUnit(raw) {
			continue
		}
		switch t := raw.(type) {
		case *units.Unit:
			resolved[c.name] = t
		case string:
			u, err := reg.Parse(t)
			if err != nil {
				entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: t, Err: err})
				continue
			}
			resolved[c.name] = u
		default:
			entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: raw, Err: &InvalidUnitError{Unit: raw}})
		}
	}
	if len(entries) > 0 {
		return nil, &AggregateError{Op: opParse, Entries: entries}
	}

	out, err := AttachUnits(obj, resolved)
	if err != nil {
		return nil, err
	}
	if out, err = clearQuantifiedAttrs(out); err != nil {
		return nil, err
	}
	return wrapUnitIndexes(out, reg), nil
}

// Dequantify is the inverse of Quantify: it moves the unit of every
// wrapped component into its "units" attribute and unwraps the buffer.
// Quantify followed by Dequantify round-trips, including the name of an
// unnamed array.
func Dequantify(obj interface{}) (interface{}, error) {
	um, err := ExtractUnits(obj)
	if err != nil {
		return nil, err
	}
	attrUnits := make(map[string]interface{}, len(um))
	for name, u := range um {
		if u == nil {
			continue
		}
		attrUnits[name] = stringifyUnit(u)
	}
	stripped, err := StripUnits(obj)
	if err != nil {
		return nil, err
	}
	return AttachUnitAttributes(stripped, attrUnits)
}

// To converts the components of obj to the units named in spec. Spec
// entries may be *units.Unit or strings parsed against reg; nil entries
// leave their component alone. A nil reg means the default registry.
// Parse failures, and then conversion failures, are each collected
// across all components.
func To(obj interface{}, spec map[string]interface{}, reg *units.Registry) (interface{}, error) {
	if reg == nil {
		reg = units.DefaultRegistry()
	}
	ent, err := asEntity(obj)
	if err != nil {
		return nil, err
	}
	norm := ent.normalizeSpec(spec)
	resolved := make(map[string]interface{}, len(norm))
	var entries []ComponentError
	for _, name := range sortedSpecKeys(norm) {
		raw := norm[name]
		if isNoUnit(raw) {
			continue
		}
		switch t := raw.(type) {
		case *units.Unit:
			resolved[name] = t
		case string:
			u, err := reg.Parse(t)
			if err != nil {
				entries = append(entries, ComponentError{Name: reportName(ent, name), Unit: t, Err: err})
				continue
			}
			resolved[name] = u
		default:
			entries = append(entries, ComponentError{Name: reportName(ent, name), Unit: raw, Err: &InvalidUnitError{Unit: raw}})
		}
	}
	if len(entries) > 0 {
		return nil, &AggregateError{Op: opParse, Entries: entries}
	}

	out, err := ConvertUnits(obj, resolved)
	if err != nil {
		return nil, err
	}
	return wrapUnitIndexes(out, reg), nil
}

// ToBaseUnits converts every unit-bearing component of obj to the SI
// unit with the same dimensions. A nil reg means the default registry.
func ToBaseUnits(obj interface{}, reg *units.Registry) (interface{}, error) {
	if reg == nil {
		reg = units.DefaultRegistry()
	}
	um, err := ExtractUnits(obj)
	if err != nil {
		return nil, err
	}
	spec := make(map[string]interface{})
	var entries []ComponentError
	for _, name := range sortedSpecKeys(um) {
		switch t := um[name].(type) {
		case *units.Unit:
			spec[name] = t.Base()
		case string:
			if isCalendarUnits(t) {
				continue
			}
			u, err := reg.Parse(t)
			if err != nil {
				entries = append(entries, ComponentError{Name: name, Unit: t, Err: err})
				continue
			}
			spec[name] = u.Base()
		}
	}
	if len(entries) > 0 {
		return nil, &AggregateError{Op: opParse, Entries: entries}
	}

	out, err := ConvertUnits(obj, spec)
	if err != nil {
		return nil, err
	}
	return wrapUnitIndexes(out, reg), nil
}

// clearQuantifiedAttrs removes the "units" attribute from components
// whose unit has moved into a wrapped buffer.
func clearQuantifiedAttrs(obj interface{}) (interface{}, error) {
	return mapVariables(obj, func(name string, cls componentClass, v *labarray.Variable) (*labarray.Variable, error) {
		if _, ok := v.Data().(*units.Quantity); !ok {
			return v, nil
		}
		if _, ok := v.Attrs()[unitsAttr]; !ok {
			return v, nil
		}
		attrs := v.Attrs().Copy()
		delete(attrs, unitsAttr)
		return v.CopyWithAttrs(v.Data(), attrs), nil
	})
}

// wrapUnitIndexes decorates every label index whose coordinates carry a
// "units" attribute with a UnitIndex, so that selection becomes
// unit-aware. Containers without indexes pass through unchanged.
func wrapUnitIndexes(obj interface{}, reg *units.Registry) interface{} {
	switch t := obj.(type) {
	case *labarray.Dataset:
		for dim, ix := range t.Indexes() {
			if _, ok := ix.(*UnitIndex); ok {
				continue
			}
			if um := levelUnits(ix, t.Coords(), reg); len(um) > 0 {
				t = t.SetIndex(dim, NewUnitIndex(ix, um))
			}
		}
		return t
	case *labarray.DataArray:
		for dim, ix := range t.Indexes() {
			if _, ok := ix.(*UnitIndex); ok {
				continue
			}
			if um := levelUnits(ix, t.Coords(), reg); len(um) > 0 {
				t = t.SetIndex(dim, NewUnitIndex(ix, um))
			}
		}
		return t
	default:
		return obj
	}
}

// levelUnits parses the "units" attribute of every coordinate backing
// ix. Missing, temporal and unparseable attributes leave the level
// unitless.
func levelUnits(ix labarray.Index, coords map[string]*labarray.Variable, reg *units.Registry) map[string]*units.Unit {
	um := make(map[string]*units.Unit)
	for _, level := range ix.Levels() {
		c, ok := coords[level]
		if !ok {
			continue
		}
		s, ok := c.Attrs().GetString(unitsAttr)
		if !ok || isCalendarUnits(s) {
			continue
		}
		u, err := reg.Parse(s)
		if err != nil {
			continue
		}
		um[level] = u
	}
	return um
}

func sortedSpecKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

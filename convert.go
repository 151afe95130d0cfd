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
	"regexp"

	"github.com/ctessum/sparse"

	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/units"
)

// unitsAttr is the attribute key of the unit-attribute bridge: the unit
// of an index-bearing coordinate lives here as a string, because its
// buffer must stay plain to keep backing a label index.
const unitsAttr = "units"

// calendarUnitsRe matches temporal reference units of the form
// "<unit> since <date>". Such attributes describe an encoding, not a
// physical unit, and are left alone by the attribute bridge.
var calendarUnitsRe = regexp.MustCompile(`^\s*\w+\s+since\s+\d{1,4}-\d{1,2}-\d{1,2}([T ].*)?$`)

// isCalendarUnits reports whether s is a temporal reference unit string.
func isCalendarUnits(s string) bool {
	return calendarUnitsRe.MatchString(s)
}

// reportName maps an internal component key back to the name the caller
// knows it by, for use in error entries and result maps.
func reportName(ent entity, name string) string {
	for k := range ent.renameKeys(map[string]interface{}{name: nil}) {
		return k
	}
	return name
}

// AttachUnits attaches units to the components of obj, keyed by name.
// obj may be a *labarray.Variable, *labarray.DataArray or
// *labarray.Dataset; the same shape is returned. The unit for a bare
// variable, or for the main variable of a data array, may be keyed by
// the array's own name or by "". Spec values must be *units.Unit or a
// no-unit sentinel (nil, "" or "none"); components with no entry are
// left alone. Index-bearing coordinates receive their unit as a string
// attribute instead of a wrapped buffer.
//
// Failures are collected across all components: either every component
// succeeds and the new container is returned, or an *AggregateError
// naming every failing component is returned and obj is unchanged.
func AttachUnits(obj interface{}, spec map[string]interface{}) (interface{}, error) {
	ent, err := asEntity(obj)
	if err != nil {
		return nil, err
	}
	norm := ent.normalizeSpec(spec)
	vars := make(map[string]*labarray.Variable)
	var entries []ComponentError
	for _, c := range ent.components() {
		u := norm[c.name]
		nv, err := attachVariable(c.v, u, ent.class(c.name))
		if err != nil {
			entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: u, Err: err})
			continue
		}
		vars[c.name] = nv
	}
	if len(entries) > 0 {
		return nil, &AggregateError{Op: opAttach, Entries: entries}
	}
	return ent.rebuild(vars)
}

// ConvertUnits converts the components of obj to the units given in
// spec, keyed like AttachUnits. Spec values may be *units.Unit or, for
// already-wrapped components, a string resolved against the component's
// own registry. Components with a nil entry are left alone; levels of a
// hierarchical index are never converted. Failures are collected across
// all components like AttachUnits.
func ConvertUnits(obj interface{}, spec map[string]interface{}) (interface{}, error) {
	ent, err := asEntity(obj)
	if err != nil {
		return nil, err
	}
	norm := ent.normalizeSpec(spec)
	vars := make(map[string]*labarray.Variable)
	var entries []ComponentError
	for _, c := range ent.components() {
		target := norm[c.name]
		nv, err := convertVariable(c.v, target, ent.class(c.name))
		if err != nil {
			entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: target, Err: err})
			continue
		}
		vars[c.name] = nv
	}
	if len(entries) > 0 {
		return nil, &AggregateError{Op: opConvert, Entries: entries}
	}
	return ent.rebuild(vars)
}

// ExtractUnits returns the unit of every component of obj: the wrapped
// unit as a *units.Unit, or the value of the "units" attribute for
// components carrying one, or nil. The unit of a bare variable or of an
// array's main variable is keyed by the array's name ("" when unnamed).
func ExtractUnits(obj interface{}) (map[string]interface{}, error) {
	ent, err := asEntity(obj)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	for _, c := range ent.components() {
		if u := extractDataUnits(c.v.Data()); u != nil {
			out[c.name] = u
		} else if a, ok := c.v.Attrs()[unitsAttr]; ok {
			out[c.name] = a
		} else {
			out[c.name] = nil
		}
	}
	return ent.renameKeys(out), nil
}

// StripUnits removes unit wrappers from every component of obj, keeping
// the raw buffers and leaving attributes untouched. It never fails on a
// recognized container shape.
func StripUnits(obj interface{}) (interface{}, error) {
	return mapVariables(obj, func(name string, cls componentClass, v *labarray.Variable) (*labarray.Variable, error) {
		return v.Copy(stripData(v.Data())), nil
	})
}

// AttachUnitAttributes writes the given units into the "units" string
// attribute of the named components, without touching their buffers.
// *units.Unit values are stringified; nil entries are skipped.
func AttachUnitAttributes(obj interface{}, unitMap map[string]interface{}) (interface{}, error) {
	ent, err := asEntity(obj)
	if err != nil {
		return nil, err
	}
	norm := ent.normalizeSpec(unitMap)
	vars := make(map[string]*labarray.Variable)
	for _, c := range ent.components() {
		u, ok := norm[c.name]
		if !ok || u == nil {
			vars[c.name] = c.v
			continue
		}
		attrs := c.v.Attrs().Copy()
		attrs[unitsAttr] = stringifyUnit(u)
		vars[c.name] = c.v.CopyWithAttrs(c.v.Data(), attrs)
	}
	return ent.rebuild(vars)
}

// ExtractUnitAttributes returns the value of the "units" attribute of
// every component that has one, except temporal reference units, which
// describe an encoding rather than a physical unit.
func ExtractUnitAttributes(obj interface{}) (map[string]interface{}, error) {
	ent, err := asEntity(obj)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	for _, c := range ent.components() {
		s, ok := c.v.Attrs().GetString(unitsAttr)
		if !ok || isCalendarUnits(s) {
			continue
		}
		out[c.name] = s
	}
	return ent.renameKeys(out), nil
}

// StripUnitAttributes removes the "units" attribute from every
// component, except temporal reference units, which are kept.
func StripUnitAttributes(obj interface{}) (interface{}, error) {
	return mapVariables(obj, func(name string, cls componentClass, v *labarray.Variable) (*labarray.Variable, error) {
		s, ok := v.Attrs().GetString(unitsAttr)
		if !ok || isCalendarUnits(s) {
			return v, nil
		}
		attrs := v.Attrs().Copy()
		delete(attrs, unitsAttr)
		return v.CopyWithAttrs(v.Data(), attrs), nil
	})
}

// mapVariables applies f to every component of obj and rebuilds the
// container.
func mapVariables(obj interface{}, f func(name string, cls componentClass, v *labarray.Variable) (*labarray.Variable, error)) (interface{}, error) {
	ent, err := asEntity(obj)
	if err != nil {
		return nil, err
	}
	vars := make(map[string]*labarray.Variable)
	for _, c := range ent.components() {
		nv, err := f(c.name, ent.class(c.name), c.v)
		if err != nil {
			return nil, err
		}
		vars[c.name] = nv
	}
	return ent.rebuild(vars)
}

// attachVariable attaches a unit to one component. Index-bearing
// coordinates take the unit as a string attribute; everything else wraps
// the buffer.
func attachVariable(v *labarray.Variable, u interface{}, cls componentClass) (*labarray.Variable, error) {
	if cls == plainComponent {
		data, err := attachData(v.Data(), u)
		if err != nil {
			return nil, err
		}
		return v.Copy(data), nil
	}

	// Index component: the buffer stays plain.
	if isNoUnit(u) {
		return v, nil
	}
	un, ok := u.(*units.Unit)
	if !ok {
		return nil, &InvalidUnitError{Unit: u}
	}
	if existing, ok := v.Attrs().GetString(unitsAttr); ok {
		if isCalendarUnits(existing) {
			return nil, fmt.Errorf("cannot attach unit %q over temporal reference units %q", un, existing)
		}
		prev, err := un.Registry().Parse(existing)
		if err != nil {
			return nil, &InvalidUnitError{Unit: existing}
		}
		if prev.Equal(un) {
			return v, nil
		}
		return nil, &AlreadyHasUnitsError{Existing: prev, Attempted: un}
	}
	attrs := v.Attrs().Copy()
	attrs[unitsAttr] = un.String()
	return v.CopyWithAttrs(v.Data(), attrs), nil
}

// convertVariable converts one component to the target unit. Levels of
// a hierarchical index are never converted; index-bearing coordinates
// are converted through a transient quantity built from their "units"
// attribute, with the attribute rewritten afterwards.
func convertVariable(v *labarray.Variable, target interface{}, cls componentClass) (*labarray.Variable, error) {
	switch cls {
	case multiIndexComponent:
		return v, nil
	case plainComponent:
		data, err := convertData(v.Data(), target)
		if err != nil {
			return nil, err
		}
		return v.Copy(data), nil
	}

	if target == nil {
		return v, nil
	}
	tu, ok := target.(*units.Unit)
	if !ok {
		if s, isString := target.(string); isString {
			// Without a wrapped buffer there is no registry to
			// resolve the string against.
			return nil, &UnitlessConversionError{Unit: s}
		}
		return nil, &InvalidUnitError{Unit: target}
	}
	d, ok := v.Data().(*sparse.DenseArray)
	if !ok {
		return nil, fmt.Errorf("index coordinate holds %T, not a plain buffer", v.Data())
	}
	current := tu.Registry().Dimensionless()
	if s, ok := v.Attrs().GetString(unitsAttr); ok {
		var err error
		if current, err = tu.Registry().Parse(s); err != nil {
			return nil, &InvalidUnitError{Unit: s}
		}
	}
	conv, err := units.NewQuantity(d, current).To(tu)
	if err != nil {
		return nil, err
	}
	attrs := v.Attrs().Copy()
	attrs[unitsAttr] = conv.Unit().String()
	return v.CopyWithAttrs(conv.Magnitude(), attrs), nil
}

// stringifyUnit renders a unit spec value for storage in an attribute.
func stringifyUnit(u interface{}) string {
	switch t := u.(type) {
	case *units.Unit:
		return t.String()
	case string:
		return t
	default:
		return fmt.Sprintf("%v", u)
	}
}

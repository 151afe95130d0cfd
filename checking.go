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

	"github.com/spatialmodel/unitdata/units"
)

// CheckUnits verifies that the named components of obj carry exactly
// the expected units. Expected values may be *units.Unit, strings
// parsed against reg, or a no-unit sentinel requiring the component to
// be unitless. Components not named in expected are not checked. All
// mismatches are reported at once; nil means everything matched.
// A nil reg means the default registry.
func CheckUnits(obj interface{}, expected map[string]interface{}, reg *units.Registry) error {
	if reg == nil {
		reg = units.DefaultRegistry()
	}
	ent, err := asEntity(obj)
	if err != nil {
		return err
	}
	norm := ent.normalizeSpec(expected)
	var entries []ComponentError
	for _, c := range ent.components() {
		raw, ok := norm[c.name]
		if !ok {
			continue
		}

		var actual *units.Unit
		if u := extractDataUnits(c.v.Data()); u != nil {
			actual = u
		} else if s, ok := c.v.Attrs().GetString(unitsAttr); ok && !isCalendarUnits(s) {
			if actual, err = reg.Parse(s); err != nil {
				entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: s,
					Err: &InvalidUnitError{Unit: s}})
				continue
			}
		}

		var want *units.Unit
		if !isNoUnit(raw) {
			if want, err = reg.Unit(raw); err != nil {
				entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: raw,
					Err: &InvalidUnitError{Unit: raw}})
				continue
			}
		}

		switch {
		case want == nil && actual == nil:
		case want == nil:
			entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: raw,
				Err: fmt.Errorf("have unit %q, want none", actual)})
		case actual == nil:
			entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: raw,
				Err: fmt.Errorf("have no unit, want %q", want)})
		case !actual.Equal(want):
			entries = append(entries, ComponentError{Name: reportName(ent, c.name), Unit: raw,
				Err: fmt.Errorf("have unit %q, want %q", actual, want)})
		}
	}
	if len(entries) > 0 {
		return &AggregateError{Op: opCheck, Entries: entries}
	}
	return nil
}

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

	"github.com/ctessum/sparse"

	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/units"
)

// isNoUnit reports whether v is one of the recognized "leave unitless"
// sentinel values.
func isNoUnit(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && (s == "none" || s == "")
}

// attachData attaches a unit to a single array buffer. A no-unit
// sentinel returns the data unchanged; re-attaching an equal unit is a
// no-op; attaching over a different unit fails.
func attachData(data labarray.Data, u interface{}) (labarray.Data, error) {
	if isNoUnit(u) {
		return data, nil
	}
	un, ok := u.(*units.Unit)
	if !ok {
		return nil, &InvalidUnitError{Unit: u}
	}
	if q, ok := data.(*units.Quantity); ok {
		if q.Unit().Equal(un) {
			return data, nil
		}
		return nil, &AlreadyHasUnitsError{Existing: q.Unit(), Attempted: un}
	}
	d, ok := data.(*sparse.DenseArray)
	if !ok {
		// Attaching the dimensionless unit to a buffer that cannot
		// carry a quantity is a no-op, not a failure.
		if un.IsDimensionless() {
			return data, nil
		}
		return nil, fmt.Errorf("cannot attach unit %q to data of type %T", un, data)
	}
	return units.NewQuantity(d, un), nil
}

// convertData converts a single array buffer to the given unit. A nil
// target returns the data unchanged. Plain data is treated as
// dimensionless when the target is a *units.Unit; with a string target
// plain data fails, because there is no registry to resolve the string
// against. Dimensionality mismatches propagate the registry's own error
// unchanged.
func convertData(data labarray.Data, target interface{}) (labarray.Data, error) {
	if target == nil {
		return data, nil
	}
	switch target.(type) {
	case string, *units.Unit:
	default:
		return nil, &InvalidUnitError{Unit: target}
	}

	q, isQuantity := data.(*units.Quantity)
	if s, isString := target.(string); isString && !isQuantity {
		return nil, &UnitlessConversionError{Unit: s}
	}
	if !isQuantity {
		d, ok := data.(*sparse.DenseArray)
		if !ok {
			return nil, fmt.Errorf("cannot convert data of type %T", data)
		}
		q = units.NewQuantity(d, target.(*units.Unit).Registry().Dimensionless())
	}

	var tu *units.Unit
	switch t := target.(type) {
	case *units.Unit:
		tu = t
	case string:
		var err error
		if tu, err = q.Unit().Registry().Parse(t); err != nil {
			return nil, &InvalidUnitError{Unit: t}
		}
	}
	return q.To(tu)
}

// extractDataUnits returns the unit of a wrapped buffer, or nil for
// plain data. It never fails.
func extractDataUnits(data labarray.Data) *units.Unit {
	if q, ok := data.(*units.Quantity); ok {
		return q.Unit()
	}
	return nil
}

// stripData returns the raw buffer of a wrapped value, or the data
// unchanged. It never fails.
func stripData(data labarray.Data) labarray.Data {
	if q, ok := data.(*units.Quantity); ok {
		return q.Magnitude()
	}
	return data
}

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
	"strings"

	"go.uber.org/multierr"

	"github.com/spatialmodel/unitdata/units"
)

// An InvalidUnitError reports a value that cannot be used as a unit: it
// is neither nil, a no-unit sentinel, a parseable string, nor a
// *units.Unit.
type InvalidUnitError struct {
	Unit interface{}
}

func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("cannot use %v (%T) as a unit", e.Unit, e.Unit)
}

// An AlreadyHasUnitsError reports an attempt to attach a unit to data
// that is already wrapped with a different unit.
type AlreadyHasUnitsError struct {
	Existing, Attempted *units.Unit
}

func (e *AlreadyHasUnitsError) Error() string {
	return fmt.Sprintf("cannot attach unit %q: data already has units %q",
		e.Attempted, e.Existing)
}

// A UnitlessConversionError reports an attempt to convert plain
// (unwrapped) data using a string unit: without a quantity there is no
// registry to resolve the string against.
type UnitlessConversionError struct {
	Unit string
}

func (e *UnitlessConversionError) Error() string {
	return fmt.Sprintf("cannot convert unwrapped data using %q as a unit", e.Unit)
}

// An UnknownEntityError reports a value that is none of the three
// recognized container shapes.
type UnknownEntityError struct {
	Value interface{}
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("%T is not a variable, data array or dataset", e.Value)
}

// Operation names used in aggregated errors.
const (
	opAttach          = "cannot attach units"
	opConvert         = "cannot convert variables"
	opParse           = "cannot parse units"
	opConvertIndexers = "cannot convert indexers"
	opCheck           = "unit mismatch"
)

// A ComponentError is one entry of an AggregateError: a named component,
// the unit that was attempted for it (nil when no unit was involved),
// and the underlying cause.
type ComponentError struct {
	Name string
	Unit interface{}
	Err  error
}

func (ce ComponentError) message() string {
	if ce.Unit == nil {
		return fmt.Sprintf("variable %q: %v", ce.Name, ce.Err)
	}
	return fmt.Sprintf("variable %q with unit %v: %v", ce.Name, ce.Unit, ce.Err)
}

// An AggregateError collects the per-component failures of a bulk
// operation so that every failing component is reported at once.
// Entries are ordered by component name.
type AggregateError struct {
	Op      string
	Entries []ComponentError
}

func (e *AggregateError) Error() string {
	if len(e.Entries) == 1 {
		return e.Op + ": " + e.Entries[0].message()
	}
	msgs := make([]string, len(e.Entries))
	for i, ce := range e.Entries {
		msgs[i] = "\t" + ce.message()
	}
	return e.Op + ":\n" + strings.Join(msgs, "\n")
}

// Unwrap exposes the underlying causes as a single combined error so
// that errors.Is and errors.As see through the aggregation.
func (e *AggregateError) Unwrap() error {
	causes := make([]error, len(e.Entries))
	for i, ce := range e.Entries {
		causes[i] = ce.Err
	}
	return multierr.Combine(causes...)
}

// Failed reports the names of the failing components, in order.
func (e *AggregateError) Failed() []string {
	names := make([]string, len(e.Entries))
	for i, ce := range e.Entries {
		names[i] = ce.Name
	}
	return names
}

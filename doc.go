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

// Package unitdata attaches physical-unit metadata to labeled
// multi-dimensional array containers.
//
// The containers live in the labarray subpackage; units and quantities
// live in the units subpackage. This package ties the two together:
//
//   - Quantify and Dequantify move units between "units" string
//     attributes and wrapped quantity buffers, losslessly in both
//     directions.
//   - To, ToBaseUnits and ConvertUnits convert components between
//     compatible units, reporting every failing component at once.
//   - Sel, DropSel and Reindex select by label with unit-bearing
//     indexers, converting each label to the unit of its dimension's
//     index before lookup.
//
// Coordinates that back a label index are treated specially throughout:
// their buffers stay plain so the index keeps working, and their units
// travel in the "units" attribute instead. Temporal reference units of
// the form "<unit> since <date>" describe an encoding rather than a
// physical unit and are always left alone.
package unitdata

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
	"strings"
)

// FormatUnits renders the units of every component of obj as one line
// per component, sorted by name, for logs and command-line output.
// Unnamed components are listed as "<unnamed>" and unitless components
// as "(no units)".
func FormatUnits(obj interface{}) (string, error) {
	um, err := ExtractUnits(obj)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(um))
	for name := range um {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		label := name
		if label == "" {
			label = "<unnamed>"
		}
		if u := um[name]; u == nil {
			fmt.Fprintf(&b, "%s: (no units)\n", label)
		} else {
			fmt.Fprintf(&b, "%s: %v\n", label, u)
		}
	}
	return b.String(), nil
}

/*
Copyright © 2017 the Transects authors.
This file is part of Transects.

Transects is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Transects is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Transects.  If not, see <http://www.gnu.org/licenses/>.
*/

package hash

import "testing"

type params struct {
	Length float64
	N      int
	Name   string
}

type hidden struct {
	length float64
}

func TestHash(t *testing.T) {
	a := Hash(params{Length: 100, N: 10, Name: "area.shp"})
	if len(a) != 32 {
		t.Errorf("hash %s has length %d", a, len(a))
	}
	if b := Hash(params{Length: 100, N: 10, Name: "area.shp"}); a != b {
		t.Errorf("equal objects hash differently: %s != %s", a, b)
	}
	if b := Hash(params{Length: 100, N: 11, Name: "area.shp"}); a == b {
		t.Error("different objects have the same hash")
	}

	// gob cannot encode structs without exported fields.
	x, y := Hash(hidden{length: 1}), Hash(hidden{length: 2})
	if x == y {
		t.Error("spew fallback does not distinguish objects")
	}
}

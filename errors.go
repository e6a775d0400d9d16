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

package transects

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed parameters, such as a
	// non-positive transect length or an empty attempt budget.
	ErrInvalidInput = errors.New("transects: invalid input")

	// ErrEmptyZone indicates that the unsampled zone has no room left to
	// draw a start point from. The engine treats it as the end of a trial
	// rather than as a failure.
	ErrEmptyZone = errors.New("transects: unsampled zone is empty")
)

// GeometryError is a failure of the geometry backend. The state of the
// backend is not trusted after one occurs, so it ends the current
// optimization run.
type GeometryError struct {
	// Op is the name of the geometry operation that failed.
	Op  string
	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("transects: geometry %s: %v", e.Op, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

func invalidf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, a...))
}

// geometryErr makes sure err is reported as a GeometryError.
func geometryErr(op string, err error) error {
	var ge *GeometryError
	if errors.As(err, &ge) {
		return err
	}
	return &GeometryError{Op: op, Err: err}
}

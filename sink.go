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

import "context"

// Sink persists finished transect collections.
type Sink interface {
	// WriteCollection writes items to destination, replacing anything
	// previously written there.
	WriteCollection(ctx context.Context, items []Transect, destination string) error

	// ReadCount returns the number of transects stored at destination.
	ReadCount(ctx context.Context, destination string) (int, error)
}

// Remover is implemented by sinks that can delete a destination.
type Remover interface {
	Remove(ctx context.Context, destination string) error
}

// ScoreRecorder records the transect count of every optimization trial.
type ScoreRecorder interface {
	RecordScores(scores []int) error
}

// Placer runs placement trials. *Engine is a Placer.
type Placer interface {
	Place(ctx context.Context, area *SurveyArea, transectLength float64, maxTransects int, targetSamplingProportion float64) (*Trial, error)
}

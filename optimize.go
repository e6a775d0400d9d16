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
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Optimizer repeats placement trials to find the one with the most
// transects.
type Optimizer struct {
	Placer Placer

	// Sink receives the checkpoint and final output. If nil, nothing is
	// persisted.
	Sink Sink

	// Checkpoint is the destination the best trial so far is written to
	// each time it improves. If Sink implements Remover, the checkpoint is
	// removed once the final output has been written.
	Checkpoint string

	// Output is the destination of the final best trial.
	Output string

	// Scores, if not nil, receives the transect count of every trial.
	Scores ScoreRecorder

	Log logrus.FieldLogger
}

func (o *Optimizer) log() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// Optimize runs up to c.MaxIterations placement trials with a target
// sampling proportion of 1, so only the attempt budget limits each trial.
// A trial that places c.MaxTransects transects ends the run early.
// Otherwise, every trial that places more transects than all previous ones
// becomes the best trial and is checkpointed.
//
// It returns the best trial, which has a count of zero if no trial placed
// any transects, and the transect count of every trial that was run.
// Errors from the placer end the run without retry; in that case the last
// checkpoint is left in place.
func (o *Optimizer) Optimize(ctx context.Context, area *SurveyArea, c Config) (*Trial, []int, error) {
	if c.MaxIterations < 1 {
		return nil, nil, invalidf("maximum number of iterations must be >= 1 but is %d", c.MaxIterations)
	}
	if err := checkPlacement(area, c.TransectLength, c.MaxTransects, 1); err != nil {
		return nil, nil, err
	}
	if o.Placer == nil {
		return nil, nil, invalidf("optimizer has no placer")
	}
	log := o.log()

	var best *Trial
	var bestCount int
	var checkpointed bool
	scores := make([]int, 0, c.MaxIterations)

	for i := 0; i < c.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, scores, err
		}
		log.WithFields(logrus.Fields{
			"iteration":      i,
			"max_iterations": c.MaxIterations,
		}).Info("running trial")

		trial, err := o.Placer.Place(ctx, area, c.TransectLength, c.MaxTransects, 1)
		if err != nil {
			return nil, scores, fmt.Errorf("transects: trial %d: %w", i, err)
		}
		n := trial.Count()
		scores = append(scores, n)
		fields := logrus.Fields{"iteration": i, "count": n}

		if n == c.MaxTransects {
			log.WithFields(fields).Info("maximum number of transects achieved")
			best, bestCount = trial, n
			break
		}
		if n > bestCount {
			if err := o.persist(ctx, trial, o.Checkpoint); err != nil {
				return nil, scores, err
			}
			checkpointed = o.Sink != nil && o.Checkpoint != ""
			best, bestCount = trial, n
			log.WithFields(fields).Info("best count improved")
		} else {
			log.WithFields(fields).WithField("best_count", bestCount).Info("best count unchanged")
		}
	}

	if best == nil {
		best = &Trial{}
	}
	if err := o.persist(ctx, best, o.Output); err != nil {
		return nil, scores, err
	}
	if r, ok := o.Sink.(Remover); ok && checkpointed && o.Checkpoint != o.Output {
		if err := r.Remove(ctx, o.Checkpoint); err != nil {
			return nil, scores, fmt.Errorf("transects: removing checkpoint %s: %w", o.Checkpoint, err)
		}
	}
	if o.Scores != nil {
		if err := o.Scores.RecordScores(scores); err != nil {
			return nil, scores, fmt.Errorf("transects: recording scores: %w", err)
		}
	}
	log.WithField("count", bestCount).Info("final transect count")
	return best, scores, nil
}

// persist writes t to dest and checks that all of its transects arrived.
func (o *Optimizer) persist(ctx context.Context, t *Trial, dest string) error {
	if o.Sink == nil || dest == "" {
		return nil
	}
	if err := Save(ctx, o.Sink, t, dest); err != nil {
		return err
	}
	o.log().WithFields(logrus.Fields{"destination": dest, "count": t.Count()}).Info("wrote transects")
	return nil
}

// Save writes the transects in t to dest and checks that the number of
// transects stored there matches the trial. On success t.Destination is
// set to dest.
func Save(ctx context.Context, s Sink, t *Trial, dest string) error {
	if err := s.WriteCollection(ctx, t.Transects, dest); err != nil {
		return fmt.Errorf("transects: writing %s: %w", dest, err)
	}
	n, err := s.ReadCount(ctx, dest)
	if err != nil {
		return fmt.Errorf("transects: counting transects in %s: %w", dest, err)
	}
	if n != t.Count() {
		return fmt.Errorf("transects: %s holds %d transects but the trial has %d", dest, n, t.Count())
	}
	t.Destination = dest
	return nil
}

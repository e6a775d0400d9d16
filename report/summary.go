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

package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin is one histogram bin covering counts in [Lower, Upper).
type Bin struct {
	Lower, Upper int

	// Trials is the number of trials whose count fell in the bin.
	Trials int
}

// Summary describes the distribution of transect counts over the
// trials of an optimizer run.
type Summary struct {
	N            int
	Min, Max     int
	Mean, StdDev float64
	Bins         []Bin
}

// Summarize computes a Summary of scores. The histogram has bins of
// width one spanning [min-2, max+2).
func Summarize(scores []int) (*Summary, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("report: no scores to summarize")
	}
	x := make([]float64, len(scores))
	for i, s := range scores {
		x[i] = float64(s)
	}
	sort.Float64s(x)

	s := &Summary{
		N:    len(x),
		Min:  int(floats.Min(x)),
		Max:  int(floats.Max(x)),
		Mean: stat.Mean(x, nil),
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(x, nil)
	}

	dividers := make([]float64, 0, s.Max-s.Min+4)
	for d := s.Min - 2; d < s.Max+2; d++ {
		dividers = append(dividers, float64(d))
	}
	counts := stat.Histogram(nil, dividers, x, nil)
	s.Bins = make([]Bin, len(counts))
	for i, c := range counts {
		s.Bins[i] = Bin{
			Lower:  int(dividers[i]),
			Upper:  int(dividers[i+1]),
			Trials: int(c),
		}
	}
	return s, nil
}

// Write prints the summary and a text histogram of it to w.
func (s *Summary) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "trials: %d\nmin: %d\nmax: %d\nmean: %.3g\nstd. dev.: %.3g\n\nNumber of transects | Number of iterations\n",
		s.N, s.Min, s.Max, s.Mean, s.StdDev)
	if err != nil {
		return err
	}
	maxTrials := 0
	for _, b := range s.Bins {
		if b.Trials > maxTrials {
			maxTrials = b.Trials
		}
	}
	const width = 50
	for _, b := range s.Bins {
		bar := 0
		if maxTrials > 0 {
			bar = int(math.Round(float64(b.Trials) / float64(maxTrials) * width))
		}
		if _, err := fmt.Fprintf(w, "%20d | %-*s %d\n", b.Lower, width, strings.Repeat("#", bar), b.Trials); err != nil {
			return err
		}
	}
	return nil
}

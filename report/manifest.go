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
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/spatialmodel/transects"
	"github.com/spatialmodel/transects/internal/hash"
)

// Manifest is a record of a placement or optimizer run.
type Manifest struct {
	RunID      string
	Command    string
	Version    string
	ConfigHash string

	SurveyArea string
	Seed       int64
	Config     transects.Config

	BestCount int
	Attempts  int `toml:",omitempty"`
	Scores    []int
	Summary   *Summary `toml:",omitempty"`

	OutputFile string
	CountsFile string `toml:",omitempty"`
	LogFile    string `toml:",omitempty"`

	Start   time.Time
	Elapsed string
}

// NewManifest starts a manifest for a run of command with the given
// parameters. The configuration hash covers everything that determines
// the result of the run.
func NewManifest(command, surveyArea string, seed int64, c transects.Config) *Manifest {
	return &Manifest{
		RunID:   uuid.New().String(),
		Command: command,
		Version: transects.Version,
		ConfigHash: hash.Hash(struct {
			SurveyArea string
			Seed       int64
			Config     transects.Config
		}{surveyArea, seed, c}),
		SurveyArea: surveyArea,
		Seed:       seed,
		Config:     c,
		Start:      time.Now(),
	}
}

// Finish records the results of the run.
func (m *Manifest) Finish(best *transects.Trial, scores []int) error {
	m.BestCount = best.Count()
	if best != nil {
		m.Attempts = best.Attempts
		if best.Destination != "" {
			m.OutputFile = best.Destination
		}
	}
	m.Elapsed = time.Since(m.Start).Round(time.Millisecond).String()
	if len(scores) > 0 {
		m.Scores = scores
		s, err := Summarize(scores)
		if err != nil {
			return err
		}
		m.Summary = s
	}
	return nil
}

// Write writes the manifest to path in TOML format.
func (m *Manifest) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating manifest: %v", err)
	}
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return fmt.Errorf("report: writing manifest: %v", err)
	}
	return f.Close()
}

// ReadManifest reads a manifest written by Write.
func ReadManifest(path string) (*Manifest, error) {
	m := new(Manifest)
	if _, err := toml.DecodeFile(path, m); err != nil {
		return nil, fmt.Errorf("report: reading manifest: %v", err)
	}
	return m, nil
}

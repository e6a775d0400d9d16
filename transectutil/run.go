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

package transectutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/transects"
	"github.com/spatialmodel/transects/report"
	"github.com/spatialmodel/transects/store"
)

// newLogger returns a logger that writes to both w and logFile.
func newLogger(w io.Writer, logFile string) (*logrus.Logger, io.Closer, error) {
	f, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("transects: problem creating log file: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.MultiWriter(w, f))
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return log, f, nil
}

// chooseSeed returns seed, or a seed based on the current time if seed is 0.
func chooseSeed(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

// newMux returns the sink that run results are written to. Shapefile
// outputs carry the spatial reference prj.
func newMux(prj string, log logrus.FieldLogger) *store.Mux {
	s := store.Shapefile{Projection: prj}
	return &store.Mux{
		Shapefile: s,
		Blob:      store.Blob{Shapefile: s, Log: log},
	}
}

// start sets up the logger, survey area and manifest shared by the
// place and optimize commands.
func start(ctx context.Context, command string, w io.Writer, rc *RunConfig) (*logrus.Entry, io.Closer, *transects.SurveyArea, string, *report.Manifest, error) {
	log, f, err := newLogger(w, rc.LogFile)
	if err != nil {
		return nil, nil, nil, "", nil, err
	}
	area, prj, err := loadSurveyArea(ctx, rc.SurveyArea)
	if err != nil {
		f.Close()
		return nil, nil, nil, "", nil, err
	}
	seed := chooseSeed(rc.Seed)
	m := report.NewManifest(command, rc.SurveyArea, seed, rc.Config)
	m.LogFile = rc.LogFile
	entry := log.WithField("run_id", m.RunID)
	entry.WithFields(logrus.Fields{
		"command":         command,
		"survey_area":     rc.SurveyArea,
		"area":            area.Area,
		"seed":            seed,
		"transect_length": rc.TransectLength,
		"max_transects":   rc.MaxTransects,
		"config_hash":     m.ConfigHash,
	}).Info("starting run")
	return entry, f, area, prj, m, nil
}

// finish writes the run manifest, if one was requested.
func finish(log logrus.FieldLogger, rc *RunConfig, m *report.Manifest, best *transects.Trial, scores []int) error {
	if rc.ManifestFile == "" {
		return nil
	}
	if err := m.Finish(best, scores); err != nil {
		return err
	}
	if err := m.Write(rc.ManifestFile); err != nil {
		return err
	}
	log.WithField("manifest", rc.ManifestFile).Info("wrote manifest")
	return nil
}

// Place runs a single placement trial as specified by rc, writes the
// resulting transects to rc.OutputFile, and logs progress to w and
// rc.LogFile.
func Place(ctx context.Context, w io.Writer, rc *RunConfig) (*transects.Trial, error) {
	log, f, area, prj, m, err := start(ctx, "place", w, rc)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e := transects.NewEngine(transects.Planar{}, m.Seed)
	e.Log = log
	trial, err := e.Place(ctx, area, rc.TransectLength, rc.MaxTransects, rc.TargetSamplingProportion)
	if err != nil {
		return nil, err
	}

	mux := newMux(prj, log)
	defer mux.Close()
	if err := transects.Save(ctx, mux, trial, rc.OutputFile); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"count":                trial.Count(),
		"attempts":             trial.Attempts,
		"unsampled_proportion": trial.UnsampledProportion,
		"exhausted":            trial.Exhausted,
		"destination":          rc.OutputFile,
	}).Info("placement complete")

	if err := finish(log, rc, m, trial, nil); err != nil {
		return nil, err
	}
	return trial, nil
}

// Optimize runs rc.MaxIterations placement trials, writes the trial with
// the most transects to rc.OutputFile, and logs progress to w and
// rc.LogFile. It returns the best trial and the transect count of every
// trial.
func Optimize(ctx context.Context, w io.Writer, rc *RunConfig) (*transects.Trial, []int, error) {
	log, f, area, prj, m, err := start(ctx, "optimize", w, rc)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	e := transects.NewEngine(transects.Planar{}, m.Seed)
	e.Log = log
	mux := newMux(prj, log)
	defer mux.Close()
	o := &transects.Optimizer{
		Placer:     e,
		Sink:       mux,
		Checkpoint: rc.CheckpointFile,
		Output:     rc.OutputFile,
		Log:        log,
	}
	if rc.CountsFile != "" {
		o.Scores = report.NewScoreRecorder(rc.CountsFile)
		m.CountsFile = rc.CountsFile
	}
	best, scores, err := o.Optimize(ctx, area, rc.Config)
	if err != nil {
		return nil, scores, err
	}
	if err := finish(log, rc, m, best, scores); err != nil {
		return nil, scores, err
	}
	return best, scores, nil
}

// Export writes the endpoints and bearings of the transects in inputFile
// to the CSV file outputFile, reprojecting them to outputSR if it is not
// empty.
func Export(ctx context.Context, inputFile, outputFile, outputSR string) error {
	local, cleanup, err := maybeDownload(ctx, inputFile)
	if err != nil {
		return err
	}
	defer cleanup()
	var items []transects.Transect
	var prj string
	switch strings.ToLower(filepath.Ext(local)) {
	case ".geojson", ".json":
		b, err := ioutil.ReadFile(local)
		if err != nil {
			return fmt.Errorf("transects: reading %s: %v", inputFile, err)
		}
		if items, err = store.DecodeCollection(b); err != nil {
			return err
		}
	default:
		if items, prj, err = store.ReadShapefile(local); err != nil {
			return err
		}
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("transects: creating export file: %v", err)
	}
	if err := report.ExportEndpoints(out, items, prj, outputSR); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

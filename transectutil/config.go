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
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/transects"
	"github.com/spatialmodel/transects/cloud"
)

// RunConfig holds the settings for the place and optimize commands.
type RunConfig struct {
	transects.Config

	// SurveyArea is the location of the survey area polygon.
	SurveyArea string

	// Seed is the random number generator seed. Zero means the seed
	// is chosen from the current time.
	Seed int64

	OutputFile     string
	CheckpointFile string
	CountsFile     string
	ManifestFile   string
	LogFile        string
}

// runConfig reads and checks the run settings in cfg.
func runConfig(cfg *viper.Viper) (*RunConfig, error) {
	rc := &RunConfig{
		Config: transects.Config{
			TransectLength:           cfg.GetFloat64("TransectLength"),
			MaxTransects:             cfg.GetInt("MaxTransects"),
			MaxIterations:            cfg.GetInt("MaxIterations"),
			TargetSamplingProportion: cfg.GetFloat64("TargetSamplingProportion"),
		},
		SurveyArea:   os.ExpandEnv(cfg.GetString("SurveyArea")),
		CountsFile:   os.ExpandEnv(cfg.GetString("CountsFile")),
		ManifestFile: os.ExpandEnv(cfg.GetString("ManifestFile")),
	}
	if rc.SurveyArea == "" {
		return nil, fmt.Errorf(`you need to specify a survey area configuration variable (for example: SurveyArea="area.shp")`)
	}
	var err error
	if rc.Seed, err = getInt64(cfg, "Seed"); err != nil {
		return nil, err
	}
	if rc.OutputFile, err = checkOutputFile(cfg.GetString("OutputFile")); err != nil {
		return nil, err
	}
	rc.CheckpointFile = checkCheckpointFile(os.ExpandEnv(cfg.GetString("CheckpointFile")), rc.OutputFile)
	rc.LogFile = checkLogFile(os.ExpandEnv(cfg.GetString("LogFile")), rc.OutputFile)
	return rc, nil
}

// checkOutputFile expands any environment variables in f and makes sure
// that its location can be written to.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.shp"`)
	}
	f = os.ExpandEnv(f)
	if strings.HasPrefix(f, "redis://") || strings.HasPrefix(f, "rediss://") {
		if _, err := url.Parse(f); err != nil {
			return f, fmt.Errorf("transects: invalid OutputFile redis location: %v", err)
		}
		return f, nil
	}
	if cloud.IsBlob(f) {
		bucket, _, err := cloud.OpenPath(context.TODO(), f)
		if err != nil {
			return f, fmt.Errorf("transects: error when checking OutputFile location: %v", err)
		}
		bucket.Close()
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("transects: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkCheckpointFile fills in a default value for the checkpoint location
// if one isn't specified.
func checkCheckpointFile(checkpointFile, outputFile string) string {
	if checkpointFile != "" {
		return checkpointFile
	}
	if strings.HasPrefix(outputFile, "redis://") || strings.HasPrefix(outputFile, "rediss://") {
		u, err := url.Parse(outputFile)
		if err != nil {
			return ""
		}
		q := u.Query()
		key := q.Get("key")
		if key == "" {
			key = "transects"
		}
		q.Set("key", key+"_best")
		u.RawQuery = q.Encode()
		return u.String()
	}
	ext := filepath.Ext(outputFile)
	return strings.TrimSuffix(outputFile, ext) + "_best" + ext
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified. Logs for remote outputs are written to the working directory.
func checkLogFile(logFile, outputFile string) string {
	if logFile != "" {
		return logFile
	}
	if strings.Contains(outputFile, "://") {
		u, err := url.Parse(outputFile)
		if err != nil {
			return "transects.log"
		}
		if u.Scheme == "redis" || u.Scheme == "rediss" {
			if key := u.Query().Get("key"); key != "" {
				return key + ".log"
			}
			return "transects.log"
		}
		if u.Path == "" || u.Path == "/" {
			return "transects.log"
		}
		outputFile = filepath.Base(u.Path)
	}
	return strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
}

// loadSurveyArea downloads the survey area if necessary and reads it. It
// returns the area and the WKT spatial reference of shapefile survey areas.
func loadSurveyArea(ctx context.Context, path string) (*transects.SurveyArea, string, error) {
	local, cleanup, err := maybeDownload(ctx, path)
	if err != nil {
		return nil, "", err
	}
	defer cleanup()
	p, prj, err := parseSurveyArea(local)
	if err != nil {
		return nil, "", err
	}
	a, err := transects.NewSurveyArea(transects.Planar{}, p)
	if err != nil {
		return nil, "", fmt.Errorf("transects: survey area %s: %w", path, err)
	}
	return a, prj, nil
}

// parseSurveyArea reads the survey area polygon from a shapefile or
// GeoJSON file.
func parseSurveyArea(path string) (geom.Polygonal, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return parseSurveyShapefile(path)
	case ".geojson", ".json":
		p, err := parseSurveyGeoJSON(path)
		return p, "", err
	default:
		return nil, "", fmt.Errorf("transects: survey area %s must be a shapefile or GeoJSON file", path)
	}
}

// parseSurveyShapefile returns the first polygon in a shapefile along with
// the contents of its .prj file, if there is one.
func parseSurveyShapefile(path string) (geom.Polygonal, string, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, "", fmt.Errorf("transects: opening survey area shapefile: %v", err)
	}
	defer d.Close()
	var area geom.Polygonal
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if p, ok := g.(geom.Polygonal); ok {
			area = p
			break
		}
	}
	if err := d.Error(); err != nil {
		return nil, "", fmt.Errorf("transects: reading survey area shapefile: %v", err)
	}
	if area == nil {
		return nil, "", fmt.Errorf("transects: survey area shapefile %s has no polygons", path)
	}
	prj, err := ioutil.ReadFile(strings.TrimSuffix(path, filepath.Ext(path)) + ".prj")
	if err != nil && !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("transects: reading survey area projection: %v", err)
	}
	return area, string(prj), nil
}

// parseSurveyGeoJSON returns the polygon represented by the given GeoJSON
// geometry, feature, or first feature of a feature collection.
func parseSurveyGeoJSON(path string) (geom.Polygonal, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transects: reading survey area file: %w", err)
	}
	var obj struct {
		Type     string
		Geometry json.RawMessage
		Features []struct {
			Geometry json.RawMessage
		}
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("transects: decoding survey area: %w", err)
	}
	switch obj.Type {
	case "FeatureCollection":
		if len(obj.Features) == 0 {
			return nil, fmt.Errorf("transects: survey area %s has no features", path)
		}
		b = obj.Features[0].Geometry
	case "Feature":
		b = obj.Geometry
	}
	g, err := geojson.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("transects: decoding survey area geometry: %w", err)
	}
	switch a := g.(type) {
	case geom.Polygon:
		return a, nil
	case geom.MultiPolygon:
		return a, nil
	default:
		return nil, fmt.Errorf("transects: invalid survey area geometry type %T", g)
	}
}

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

// Package transectutil contains the command line interface for
// placing random sampling transects.
package transectutil

import (
	"context"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/transects"
	"github.com/spatialmodel/transects/report"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the transects tool.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SurveyArea",
			usage: `
              SurveyArea is the path to the survey area polygon. It can be a
              shapefile (the first polygon record is used) or a GeoJSON file
              holding a Polygon or MultiPolygon geometry, feature, or feature
              collection. It can also be an http(s) URL or a blob storage
              location (gs://, s3://, or file://). It can include environment
              variables.`,
			shorthand:  "a",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{placeCmd.Flags(), optimizeCmd.Flags()},
		},
		{
			name: "TransectLength",
			usage: `
              TransectLength is the length of each transect, in the units of
              the survey area spatial reference. Transects are kept at least
              this far apart from each other.`,
			shorthand:  "l",
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{placeCmd.Flags(), optimizeCmd.Flags()},
		},
		{
			name: "MaxTransects",
			usage: `
              MaxTransects is the number of placement attempts in each trial,
              and therefore the maximum number of transects that can be placed.`,
			shorthand:  "n",
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{placeCmd.Flags(), optimizeCmd.Flags()},
		},
		{
			name: "MaxIterations",
			usage: `
              MaxIterations is the number of trials to run when searching for
              the placement with the most transects.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{optimizeCmd.Flags()},
		},
		{
			name: "TargetSamplingProportion",
			usage: `
              TargetSamplingProportion is the fraction of the survey area
              that must be within TransectLength of a transect before
              placement stops. It must be between 0 and 1.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{placeCmd.Flags()},
		},
		{
			name: "Seed",
			usage: `
              Seed is the random number generator seed. Runs with the same
              seed and settings produce the same transects. If it is 0, a
              seed is chosen based on the current time and logged.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{placeCmd.Flags(), optimizeCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the location where the transects are written.
              Files ending in .geojson or .json are written as GeoJSON and
              other files as shapefiles. It can also be a blob storage
              location (gs://, s3://, or file://) or a Redis database in
              the format redis://host:port/db?key=name. It can include
              environment variables.`,
			shorthand:  "o",
			defaultVal: "transects.shp",
			flagsets:   []*pflag.FlagSet{placeCmd.Flags(), optimizeCmd.Flags()},
		},
		{
			name: "CheckpointFile",
			usage: `
              CheckpointFile is the location where the best placement so far
              is written each time it improves. It is removed after the
              final output is written. The default is OutputFile with
              "_best" appended to its name.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{optimizeCmd.Flags()},
		},
		{
			name: "CountsFile",
			usage: `
              CountsFile, if specified, is the location where the number of
              transects in every trial is written, as CSV or, if it ends in
              .xlsx, as a spreadsheet.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{optimizeCmd.Flags()},
		},
		{
			name: "ManifestFile",
			usage: `
              ManifestFile, if specified, is the location where a TOML record
              of the run settings and results is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{placeCmd.Flags(), optimizeCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can
              include environment variables. If LogFile is left blank, the
              logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{placeCmd.Flags(), optimizeCmd.Flags()},
		},
		{
			name: "Export.InputFile",
			usage: `
              Export.InputFile is the transect file to export endpoints
              from.`,
			defaultVal: "transects.shp",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "Export.OutputFile",
			usage: `
              Export.OutputFile is the CSV file that transect endpoints and
              bearings are written to.`,
			defaultVal: "transects.csv",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "Export.OutputSR",
			usage: `
              Export.OutputSR is the spatial reference, in PROJ4 or WKT
              format, to reproject endpoints to. For example, use
              "+proj=longlat +datum=WGS84" for GPS coordinates. If it is
              empty, endpoints are not reprojected.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "Summary.CountsFile",
			usage: `
              Summary.CountsFile is the counts file written by the optimize
              command to summarize.`,
			defaultVal: "counts.csv",
			flagsets:   []*pflag.FlagSet{summarizeCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("TRANSECTS")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(placeCmd)
	Root.AddCommand(optimizeCmd)
	Root.AddCommand(exportCmd)
	Root.AddCommand(summarizeCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("transects: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "transects",
	Short: "Random placement of sampling transects.",
	Long: `transects places straight-line sampling transects at random within a
survey area polygon, keeping every transect at least one transect length away
from every other, and searches over repeated random placements for the one
with the most transects.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'TRANSECTS_var' where 'var' is the
name of the variable to be set. File locations are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of the transects tool.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("transects v%s\n", transects.Version)
	},
	DisableAutoGenTag: true,
}

// placeCmd runs a single placement trial.
var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Place transects in a single trial.",
	Long: `place draws random transects within the survey area until either
MaxTransects attempts have been made, the TargetSamplingProportion of the
survey area is within TransectLength of a transect, or there appears to be
no room left for another transect. The accepted transects are written to
OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := runConfig(Cfg)
		if err != nil {
			return err
		}
		_, err = Place(context.Background(), cmd.OutOrStdout(), rc)
		return err
	},
	DisableAutoGenTag: true,
}

// optimizeCmd searches for the trial with the most transects.
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Find the placement with the most transects.",
	Long: `optimize runs MaxIterations placement trials and keeps the one with the
most transects, writing it to CheckpointFile each time it improves and to
OutputFile at the end. The search stops early if a trial places
MaxTransects transects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := runConfig(Cfg)
		if err != nil {
			return err
		}
		_, _, err = Optimize(context.Background(), cmd.OutOrStdout(), rc)
		return err
	},
	DisableAutoGenTag: true,
}

// exportCmd writes transect endpoints and bearings.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export transect endpoints and bearings.",
	Long: `export writes the start, middle and end points and the bearing of each
transect in Export.InputFile to the CSV file Export.OutputFile, optionally
reprojecting them to Export.OutputSR so they can be located in the field.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Export(context.Background(),
			os.ExpandEnv(Cfg.GetString("Export.InputFile")),
			os.ExpandEnv(Cfg.GetString("Export.OutputFile")),
			Cfg.GetString("Export.OutputSR"),
		)
	},
	DisableAutoGenTag: true,
}

// summarizeCmd prints a histogram of optimizer trial counts.
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the transect counts of an optimizer run.",
	Long: `summarize prints statistics and a histogram of the number of transects
placed in each trial, as recorded in Summary.CountsFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := report.ReadCounts(os.ExpandEnv(Cfg.GetString("Summary.CountsFile")))
		if err != nil {
			return err
		}
		s, err := report.Summarize(counts)
		if err != nil {
			return err
		}
		return s.Write(cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}

// getInt64 returns the value of the given configuration variable as an int64.
func getInt64(cfg *viper.Viper, name string) (int64, error) {
	v, err := cast.ToInt64E(cfg.Get(name))
	if err != nil {
		return 0, fmt.Errorf("transects: the %s configuration variable must be an integer: %v", name, err)
	}
	return v, nil
}

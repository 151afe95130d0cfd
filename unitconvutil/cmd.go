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

// Package unitconvutil holds the commands of the unitconv command-line
// tool, which converts the units of NetCDF datasets.
package unitconvutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spatialmodel/unitdata"
	"github.com/spatialmodel/unitdata/labarray"
	"github.com/spatialmodel/unitdata/ncio"
)

// Version is the version of this tool, set at build time.
var Version = "development"

// Cfg holds configuration information.
var Cfg *viper.Viper

var logger *logrus.Logger

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	logger = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})

	// Options are the configuration options available to unitconv.
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
			name: "input",
			usage: `
              input specifies the NetCDF file to read.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), infoCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output specifies the NetCDF file to write the converted
              dataset to.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "to",
			usage: `
              to maps variable names to the units they should be
              converted to, for example {"x":"km","emissions":"ug/m3"}.
              Variables not listed keep their current units.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "base",
			usage: `
              base specifies whether to convert every variable to the SI
              unit with the same dimensions instead of using --to.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("UNITCONV")

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
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := b.String()
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
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
	Root.AddCommand(convertCmd)
	Root.AddCommand(infoCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("unitconv: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "unitconv",
	Short: "A unit conversion tool for NetCDF datasets.",
	Long: `unitconv reads a NetCDF dataset, interprets the "units" attribute of
each variable as a physical unit, converts variables to requested units,
and writes the result back out.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format
'UNITCONV_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

// versionCmd prints the version number.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("unitconv v%s\n", Version)
	},
}

// convertCmd converts the variables of a dataset to new units.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the variables of a NetCDF dataset to new units.",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := Cfg.GetString("input")
		output := Cfg.GetString("output")
		if input == "" || output == "" {
			return fmt.Errorf("unitconv: both --input and --output must be specified")
		}
		spec, err := toSpec()
		if err != nil {
			return err
		}
		return Convert(input, output, spec, Cfg.GetBool("base"))
	},
}

// infoCmd summarizes the units of a dataset.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List the variables of a NetCDF dataset and their units.",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := Cfg.GetString("input")
		if input == "" {
			return fmt.Errorf("unitconv: --input must be specified")
		}
		ds, err := ncio.ReadFile(input)
		if err != nil {
			return err
		}
		s, err := unitdata.FormatUnits(ds)
		if err != nil {
			return err
		}
		fmt.Print(s)
		return nil
	},
}

// Convert reads the dataset at input, converts its variables to the
// units in spec (or to SI base units when base is set), and writes the
// result to output.
func Convert(input, output string, spec map[string]interface{}, base bool) error {
	logger.WithField("file", input).Info("reading dataset")
	ds, err := ncio.ReadFile(input)
	if err != nil {
		return err
	}

	q, err := unitdata.Quantify(ds, nil, nil)
	if err != nil {
		return err
	}

	var conv interface{}
	if base {
		logger.Info("converting to SI base units")
		conv, err = unitdata.ToBaseUnits(q, nil)
	} else {
		logger.WithField("units", spec).Info("converting units")
		conv, err = unitdata.To(q, spec, nil)
	}
	if err != nil {
		return err
	}

	d, err := unitdata.Dequantify(conv)
	if err != nil {
		return err
	}
	out, ok := d.(*labarray.Dataset)
	if !ok {
		return fmt.Errorf("unitconv: conversion returned %T, not a dataset", d)
	}

	logger.WithField("file", output).Info("writing dataset")
	return ncio.WriteFile(output, out)
}

// toSpec decodes the "to" configuration option, which may be a map in
// the configuration file or a JSON-encoded string on the command line.
func toSpec() (map[string]interface{}, error) {
	v := Cfg.Get("to")
	m, err := cast.ToStringMapStringE(v)
	if err != nil {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unitconv: invalid value %v for 'to'", v)
		}
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, fmt.Errorf("unitconv: invalid value %q for 'to': %v", s, err)
		}
	}
	spec := make(map[string]interface{}, len(m))
	for name, u := range m {
		spec[name] = u
	}
	return spec, nil
}

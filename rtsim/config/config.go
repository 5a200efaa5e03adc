// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides basic infrastructure to set configuration settings
// for rtsim. The configuration is set by flags to the command line, and can
// also be read from a TOML file. Explicitly set flags take precedence over
// the file.
package config

import (
	"flag"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gvisor.dev/rt/pkg/hostemu"
	"gvisor.dev/rt/pkg/log"
	"gvisor.dev/rt/rtsim/scenario"
)

// Config holds configuration that is not part of the scenario itself.
//
// Follow these steps to add a new flag:
//  1. Create a new field in Config.
//  2. Add a field tag with the flag name and a toml tag with the file key.
//  3. Register the flag in RegisterFlags().
type Config struct {
	// ConfigFile is the path of a TOML file with more settings.
	ConfigFile string `flag:"config" toml:"-"`

	// LogFilename is the file to log to. Empty logs to stderr.
	LogFilename string `flag:"log" toml:"log"`

	// LogFormat is the log format, "text" or "json".
	LogFormat string `flag:"log-format" toml:"log_format"`

	// Debug enables debug logging.
	Debug bool `flag:"debug" toml:"debug"`

	// Clock is the machine tick source, "virtual" or "real".
	Clock string `flag:"clock" toml:"clock"`

	// TickPeriod is the wall time per tick of the real clock.
	TickPeriod time.Duration `flag:"tick-period" toml:"tick_period"`

	// MaxTicks stops a run after that many ticks. Zero is unlimited.
	MaxTicks uint64 `flag:"max-ticks" toml:"max_ticks"`

	// Items is the number of values passed through queues.
	Items int `flag:"items" toml:"items"`

	// Capacity is the queue capacity.
	Capacity int `flag:"capacity" toml:"capacity"`

	// Tasks is the number of worker tasks.
	Tasks int `flag:"tasks" toml:"tasks"`

	// Rounds is the number of iterations of each worker.
	Rounds int `flag:"rounds" toml:"rounds"`

	// Period is the period in ticks of periodic tasks.
	Period uint64 `flag:"period" toml:"period"`
}

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("config", "", "path to a TOML file with settings. Flags set on the command line take precedence.")

	// Logging flags.
	flagSet.String("log", "", "file path where logs are written, default is stderr.")
	flagSet.String("log-format", "text", "log format: text (default) or json.")
	flagSet.Bool("debug", false, "enable debug logging.")

	// Machine flags.
	flagSet.String("clock", "virtual", "tick source: virtual (default) advances time only while idle, real ticks at wall time.")
	flagSet.Duration("tick-period", hostemu.DefaultTickPeriod, "wall time between ticks of the real clock.")
	flagSet.Uint64("max-ticks", 1000000, "stop a run after this many ticks, 0 is unlimited.")

	// Scenario flags.
	flagSet.Int("items", 10, "number of values passed through queues.")
	flagSet.Int("capacity", 2, "queue capacity.")
	flagSet.Int("tasks", 3, "number of worker tasks.")
	flagSet.Int("rounds", 4, "number of iterations of each worker.")
	flagSet.Uint64("period", 5, "period in ticks of periodic tasks.")
}

// NewFromFlags creates a new Config with values coming from the given flag
// set, and from the file named by --config if any.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}
	var err error
	flagSet.VisitAll(func(fl *flag.Flag) {
		if err == nil {
			err = conf.setFlag(fl)
		}
	})
	if err != nil {
		return nil, err
	}

	if len(conf.ConfigFile) > 0 {
		if err := conf.LoadFile(conf.ConfigFile); err != nil {
			return nil, err
		}
		flagSet.Visit(func(fl *flag.Flag) {
			if err == nil {
				err = conf.setFlag(fl)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// setFlag copies the value of fl into the field tagged with its name.
// Flags without a field are ignored.
func (c *Config) setFlag(fl *flag.Flag) error {
	field, ok := c.fieldByFlag(fl.Name)
	if !ok {
		return nil
	}
	getter, ok := fl.Value.(flag.Getter)
	if !ok {
		return fmt.Errorf("flag %q does not implement flag.Getter", fl.Name)
	}
	x := reflect.ValueOf(getter.Get())
	if x.Type() != field.Type() {
		return fmt.Errorf("flag %q has type %v, field has type %v", fl.Name, x.Type(), field.Type())
	}
	field.Set(x)
	return nil
}

func (c *Config) fieldByFlag(name string) (reflect.Value, bool) {
	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		if tag, ok := st.Field(i).Tag.Lookup("flag"); ok && tag == name {
			return obj.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// LoadFile overrides c with the settings in the TOML file at path. Unknown
// keys are an error.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("error loading config file %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys in config file %q: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) validate() error {
	if _, err := hostemu.ParseClockMode(c.Clock); err != nil {
		return err
	}
	if _, err := log.NewEmitter(c.LogFormat, nil); err != nil {
		return err
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be positive, got %v", c.TickPeriod)
	}
	for _, p := range []struct {
		name  string
		value int
	}{
		{"items", c.Items},
		{"capacity", c.Capacity},
		{"tasks", c.Tasks},
		{"rounds", c.Rounds},
	} {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.Period == 0 {
		return fmt.Errorf("period must be positive")
	}
	return nil
}

// Machine returns the machine configuration.
func (c *Config) Machine() hostemu.Config {
	// Validated in NewFromFlags.
	clock, _ := hostemu.ParseClockMode(c.Clock)
	return hostemu.Config{
		Clock:      clock,
		TickPeriod: c.TickPeriod,
		MaxTicks:   c.MaxTicks,
	}
}

// Params returns the scenario parameters.
func (c *Config) Params() scenario.Params {
	return scenario.Params{
		Items:    c.Items,
		Capacity: c.Capacity,
		Tasks:    c.Tasks,
		Rounds:   c.Rounds,
		Period:   c.Period,
	}
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config:")
	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		name, ok := st.Field(i).Tag.Lookup("flag")
		if !ok {
			continue
		}
		log.Infof("\t%s: %v", name, obj.Field(i).Interface())
	}
}

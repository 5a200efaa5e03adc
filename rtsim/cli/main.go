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

// Package cli is the main entrypoint for rtsim.
package cli

import (
	"context"
	"flag"
	"io"
	"os"
	"runtime"

	"github.com/google/subcommands"
	"gvisor.dev/rt/pkg/log"
	"gvisor.dev/rt/rtsim/cmd"
	"gvisor.dev/rt/rtsim/config"
)

// Main is the main entrypoint.
func Main() {
	forEachCmd(subcommands.Register)

	// Register with the main command line.
	config.RegisterFlags(flag.CommandLine)

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	// Create a new Config from the flags.
	conf, err := config.NewFromFlags(flag.CommandLine)
	if err != nil {
		cmd.Fatalf("%v", err)
	}

	if conf.Debug {
		log.SetLevel(log.Debug)
	}

	var logFile io.Writer = os.Stderr
	if len(conf.LogFilename) > 0 {
		f, err := log.OpenFile(conf.LogFilename)
		if err != nil {
			cmd.Fatalf("%v", err)
		}
		logFile = f
	}
	emitter, err := log.NewEmitter(conf.LogFormat, logFile)
	if err != nil {
		cmd.Fatalf("%v", err)
	}
	log.SetTarget(emitter)

	log.Infof("***************************")
	log.Infof("Args: %s", os.Args)
	log.Infof("Go %s, %s/%s, %d CPUs, PID %d", runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), os.Getpid())
	log.Infof("***************************")

	// Call the subcommand and pass in the configuration and base emitter.
	subcmdCode := subcommands.Execute(context.Background(), conf, emitter)
	if subcmdCode != subcommands.ExitSuccess {
		log.Warningf("Failure to execute command, err: %v", subcmdCode)
	}
	os.Exit(int(subcmdCode))
}

// forEachCmd invokes the passed callback for each command supported by
// rtsim.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")
	cb(subcommands.CommandsCommand(), "")

	cb(new(cmd.List), "")
	cb(new(cmd.Run), "")
	cb(new(cmd.Stats), "")
}

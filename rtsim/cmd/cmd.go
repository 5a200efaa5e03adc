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

// Package cmd holds implementations of the rtsim commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"gvisor.dev/rt/pkg/hostemu"
	"gvisor.dev/rt/pkg/log"
	"gvisor.dev/rt/rtsim/config"
	"gvisor.dev/rt/rtsim/scenario"
)

// Fatalf logs to stderr and exits with a failure status code.
func Fatalf(format string, args ...any) {
	log.Warningf(format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(128)
}

// runScenario runs the scenario named by the single positional argument.
// Log lines emitted while it runs carry the machine tick. SIGINT and
// SIGTERM stop the machine.
func runScenario(ctx context.Context, name string, conf *config.Config, emitter log.Emitter) (*scenario.Result, error) {
	sc, err := scenario.Lookup(name)
	if err != nil {
		return nil, err
	}
	ctx, stop := signal.NotifyContext(ctx, unix.SIGINT, unix.SIGTERM)
	defer stop()

	conf.Log()
	r := scenario.Runner{
		Machine: conf.Machine(),
		Params:  conf.Params(),
		OnStart: func(m *hostemu.Machine) {
			if emitter != nil {
				log.SetTarget(hostemu.TickEmitter{Emitter: emitter, Sched: m.Scheduler()})
			}
		},
	}
	return r.Run(ctx, sc)
}

// execArgs unpacks the arguments passed by the command dispatcher.
func execArgs(args []any) (*config.Config, log.Emitter) {
	conf := args[0].(*config.Config)
	var emitter log.Emitter
	if len(args) > 1 {
		emitter, _ = args[1].(log.Emitter)
	}
	return conf, emitter
}

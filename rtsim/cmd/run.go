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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// Run implements subcommands.Command for the "run" command.
type Run struct {
	quiet bool
}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "run a scenario and print its trace"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <scenario> - run a scenario on an emulated machine and print its trace.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Run) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.quiet, "quiet", false, "do not print the trace.")
}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf, emitter := execArgs(args)

	res, err := runScenario(ctx, f.Arg(0), conf, emitter)
	if res != nil && !r.quiet {
		fmt.Fprintf(os.Stdout, "%8s  %-10s %s\n", "TICK", "TASK", "EVENT")
		for _, e := range res.Trace.Events {
			fmt.Fprintln(os.Stdout, e)
		}
	}
	if err != nil {
		Fatalf("%v", err)
	}
	fmt.Fprintf(os.Stdout, "%s: ok after %d ticks\n", f.Arg(0), res.Ticks)
	return subcommands.ExitSuccess
}

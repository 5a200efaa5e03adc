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
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"gvisor.dev/rt/pkg/metric"
)

// Stats implements subcommands.Command for the "stats" command.
type Stats struct {
	format string
}

// Name implements subcommands.Command.Name.
func (*Stats) Name() string {
	return "stats"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Stats) Synopsis() string {
	return "run a scenario and print kernel counters"
}

// Usage implements subcommands.Command.Usage.
func (*Stats) Usage() string {
	return `stats [flags] <scenario> - run a scenario and print the kernel counters it produced.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Stats) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.format, "format", "table", "output format: table (default) or json.")
}

// Execute implements subcommands.Command.Execute.
func (s *Stats) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if s.format != "table" && s.format != "json" {
		Fatalf("invalid format %q, must be 'table' or 'json'", s.format)
	}
	conf, emitter := execArgs(args)

	if err := metric.Initialize(); err != nil {
		Fatalf("error initializing metrics: %v", err)
	}
	if _, err := runScenario(ctx, f.Arg(0), conf, emitter); err != nil {
		Fatalf("%v", err)
	}

	samples := metric.Snapshot()
	switch s.format {
	case "json":
		b, err := json.MarshalIndent(samples, "", "  ")
		if err != nil {
			Fatalf("error marshaling metrics: %v", err)
		}
		os.Stdout.Write(b)
		fmt.Fprintln(os.Stdout)
	default:
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprint(w, "METRIC\tVALUE\n")
		for _, sample := range samples {
			fmt.Fprintf(w, "%s\t%d\n", sample.Name, sample.Value)
		}
		_ = w.Flush()
	}
	return subcommands.ExitSuccess
}

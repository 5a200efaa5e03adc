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

package log

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type testWriter struct {
	lines []string
	fail  bool
}

func (w *testWriter) Write(bytes []byte) (int, error) {
	if w.fail {
		return 0, fmt.Errorf("simulated failure")
	}
	w.lines = append(w.lines, string(bytes))
	return len(bytes), nil
}

func TestDropMessages(t *testing.T) {
	tw := &testWriter{}
	w := Writer{Next: tw}
	if _, err := w.Write([]byte("line 1\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	tw.fail = true
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}

	tw.fail = false
	if _, err := w.Write([]byte("line 2\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	want := []string{
		"line 1\n",
		"line 2\n",
		"\n*** Dropped 2 log messages ***\n",
	}
	if diff := cmp.Diff(want, tw.lines); diff != "" {
		t.Fatalf("Writer lines mismatch (-want +got):\n%s", diff)
	}
}

func TestLevelFiltering(t *testing.T) {
	tw := &testWriter{}
	l := BasicLogger{Level: Info, Emitter: &Writer{Next: tw}}
	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warningf("warning %d", 3)

	want := []string{"info 2", "\n", "warning 3", "\n"}
	if diff := cmp.Diff(want, tw.lines); diff != "" {
		t.Fatalf("emitted lines mismatch (-want +got):\n%s", diff)
	}

	l.SetLevel(Debug)
	if !l.IsLogging(Debug) {
		t.Fatalf("IsLogging(Debug) = false after SetLevel(Debug)")
	}
}

func TestGoogleEmitterFormat(t *testing.T) {
	tw := &testWriter{}
	e := GoogleEmitter{&Writer{Next: tw}}
	ts := time.Date(2026, time.October, 19, 8, 5, 3, 42000, time.UTC)
	e.Emit(0, Warning, ts, "task %q exited", "blinky")

	if len(tw.lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(tw.lines), tw.lines)
	}
	re := regexp.MustCompile(`^W1019 08:05:03\.000042 +\d+ log_test\.go:\d+\] task "blinky" exited\n$`)
	if !re.MatchString(tw.lines[0]) {
		t.Fatalf("Emit() = %q, does not match %v", tw.lines[0], re)
	}
}

func TestMultiEmitter(t *testing.T) {
	a, b := &testWriter{}, &testWriter{}
	m := MultiEmitter{&Writer{Next: a}, &Writer{Next: b}}
	m.Emit(0, Info, time.Now(), "tick %d", 7)
	for _, w := range []*testWriter{a, b} {
		if got := strings.Join(w.lines, ""); got != "tick 7\n" {
			t.Fatalf("emitter got %q, want %q", got, "tick 7\n")
		}
	}
}

func TestRateLimitedLogger(t *testing.T) {
	tw := &testWriter{}
	l := RateLimitedLogger(&BasicLogger{Level: Info, Emitter: &Writer{Next: tw}}, time.Hour)
	for i := 0; i < 5; i++ {
		l.Warningf("overrun %d", i)
	}
	want := []string{"overrun 0", "\n"}
	if diff := cmp.Diff(want, tw.lines); diff != "" {
		t.Fatalf("rate limited lines mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEmitter(t *testing.T) {
	for _, format := range []string{"text", "json", ""} {
		if _, err := NewEmitter(format, &testWriter{}); err != nil {
			t.Errorf("NewEmitter(%q) failed: %v", format, err)
		}
	}
	if _, err := NewEmitter("xml", &testWriter{}); err == nil {
		t.Errorf("NewEmitter(%q) succeeded, want error", "xml")
	}
}

func TestRateLimitedLoggerSuppressed(t *testing.T) {
	tw := &testWriter{}
	now := time.Unix(1000, 0)
	l := newRateLimitedLogger(&BasicLogger{Level: Info, Emitter: &Writer{Next: tw}}, time.Second, func() time.Time { return now })
	for i := 0; i < 4; i++ {
		l.Warningf("overrun %d", i)
	}
	now = now.Add(time.Second)
	l.Warningf("overrun %d", 4)
	l.Debugf("not logged at info")
	now = now.Add(time.Second)
	l.Infof("recovered")

	want := []string{
		"overrun 0", "\n",
		"overrun 4 (3 more suppressed)", "\n",
		"recovered", "\n",
	}
	if diff := cmp.Diff(want, tw.lines); diff != "" {
		t.Fatalf("rate limited lines mismatch (-want +got):\n%s", diff)
	}
}

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

// Package metric provides primitives for collecting metrics.
//
// Metrics are registered once, before Initialize, and are afterwards updated
// with atomic operations only, so they may be incremented from the kernel's
// dispatch path without allocating or blocking.
package metric

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"gvisor.dev/rt/pkg/atomicbitops"
)

var (
	// ErrNameInUse is returned when registering a second metric under an
	// existing name.
	ErrNameInUse = errors.New("metric name already registered")

	// ErrInitializationDone is returned when registering after Initialize.
	ErrInitializationDone = errors.New("metric registration is closed")

	// ErrFieldHasNoAllowedValues is returned for a field with an empty value
	// set.
	ErrFieldHasNoAllowedValues = errors.New("metric field has no allowed values")

	// ErrTooManyFieldCombinations is returned when the product of the field
	// value counts does not fit in 32 bits.
	ErrTooManyFieldCombinations = errors.New("metric has too many field value combinations")
)

// Uint64Metric is a cumulative counter, optionally broken down by fields.
type Uint64Metric struct {
	name        string
	description string

	// fields holds one counter per field value combination, indexed by
	// fieldMapper.
	fields      []atomicbitops.Uint64
	fieldMapper fieldMapper
}

var (
	// mu protects the registry below. Updates to metric values never take
	// it.
	mu sync.Mutex

	// initialized indicates that all metrics are registered. allMetrics is
	// immutable once initialized is true.
	initialized bool

	// allMetrics are the registered metrics, by name.
	allMetrics = map[string]*Uint64Metric{}
)

// Initialize marks registration as complete.
//
// Precondition:
//   - All metrics are registered.
//   - Initialize has not been called.
func Initialize() error {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return errors.New("metric.Initialize called after metric.Initialize")
	}
	initialized = true
	return nil
}

// Field is one dimension along which a metric is broken down, together with
// the complete set of values it may take.
type Field struct {
	name   string
	values []string
	index  map[string]int
}

// NewField returns a Field named name that accepts the given values.
func NewField(name string, allowedValues []string) Field {
	index := make(map[string]int, len(allowedValues))
	for i, v := range allowedValues {
		index[v] = i
	}
	return Field{
		name:   name,
		values: allowedValues,
		index:  index,
	}
}

// fieldMapper flattens a combination of field values into a row-major index
// into a metric's counters.
type fieldMapper struct {
	fields []Field

	// strides[i] is the distance between consecutive values of fields[i].
	strides []int

	// size is the number of distinct combinations.
	size int
}

func newFieldMapper(fields ...Field) (fieldMapper, error) {
	size := 1
	strides := make([]int, len(fields))
	for i := len(fields) - 1; i >= 0; i-- {
		n := len(fields[i].values)
		if n == 0 {
			return fieldMapper{}, ErrFieldHasNoAllowedValues
		}
		strides[i] = size
		if uint64(size)*uint64(n) > math.MaxUint32 {
			return fieldMapper{}, ErrTooManyFieldCombinations
		}
		size *= n
	}
	return fieldMapper{
		fields:  fields,
		strides: strides,
		size:    size,
	}, nil
}

// lookup returns the index for values. It panics unless there is exactly one
// allowed value per field.
func (m fieldMapper) lookup(values ...string) int {
	if len(values) != len(m.fields) {
		panic(fmt.Sprintf("metric has %d fields, got %d values", len(m.fields), len(values)))
	}
	key := 0
	for i, v := range values {
		idx, ok := m.fields[i].index[v]
		if !ok {
			panic(fmt.Sprintf("disallowed field value %q for field %q", v, m.fields[i].name))
		}
		key += idx * m.strides[i]
	}
	return key
}

// values is the inverse of lookup.
func (m fieldMapper) values(key int) []string {
	if len(m.fields) == 0 {
		return nil
	}
	vals := make([]string, len(m.fields))
	for i, f := range m.fields {
		vals[i] = f.values[key/m.strides[i]]
		key %= m.strides[i]
	}
	return vals
}

// NewUint64Metric creates and registers a new cumulative metric with the given
// name.
//
// Metrics must be registered before Initialize is called.
func NewUint64Metric(name string, description string, fields ...Field) (*Uint64Metric, error) {
	f, err := newFieldMapper(fields...)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return nil, ErrInitializationDone
	}
	if _, ok := allMetrics[name]; ok {
		return nil, ErrNameInUse
	}
	m := &Uint64Metric{
		name:        name,
		description: description,
		fieldMapper: f,
		fields:      make([]atomicbitops.Uint64, f.size),
	}
	allMetrics[name] = m
	return m, nil
}

// MustCreateNewUint64Metric calls NewUint64Metric and panics if it returns an
// error.
func MustCreateNewUint64Metric(name string, description string, fields ...Field) *Uint64Metric {
	m, err := NewUint64Metric(name, description, fields...)
	if err != nil {
		panic(fmt.Sprintf("creating metric %q: %v", name, err))
	}
	return m
}

// Name returns the metric name.
func (m *Uint64Metric) Name() string {
	return m.name
}

// Description returns the metric description.
func (m *Uint64Metric) Description() string {
	return m.description
}

// Value returns the counter selected by fieldValues, one per field.
func (m *Uint64Metric) Value(fieldValues ...string) uint64 {
	key := m.fieldMapper.lookup(fieldValues...)
	return m.fields[key].Load()
}

// Increment adds one to the counter selected by fieldValues.
func (m *Uint64Metric) Increment(fieldValues ...string) {
	key := m.fieldMapper.lookup(fieldValues...)
	m.fields[key].Add(1)
}

// IncrementBy adds v to the counter selected by fieldValues.
func (m *Uint64Metric) IncrementBy(v uint64, fieldValues ...string) {
	key := m.fieldMapper.lookup(fieldValues...)
	m.fields[key].Add(v)
}

// Sample is one value of one metric field combination.
type Sample struct {
	// Name is the metric name followed by its field values, for example
	// /rt/syscalls{op=sleep}.
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

// Snapshot returns the current value of every registered metric field
// combination, sorted by name.
func Snapshot() []Sample {
	mu.Lock()
	metrics := make([]*Uint64Metric, 0, len(allMetrics))
	for _, m := range allMetrics {
		metrics = append(metrics, m)
	}
	mu.Unlock()

	var samples []Sample
	for _, m := range metrics {
		for key := range m.fields {
			samples = append(samples, Sample{
				Name:  m.sampleName(key),
				Value: m.fields[key].Load(),
			})
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })
	return samples
}

func (m *Uint64Metric) sampleName(key int) string {
	values := m.fieldMapper.values(key)
	if len(values) == 0 {
		return m.name
	}
	var b strings.Builder
	b.WriteString(m.name)
	b.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%s", m.fieldMapper.fields[i].name, v)
	}
	b.WriteByte('}')
	return b.String()
}

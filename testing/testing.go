// Package testing provides utilities for writing tests against the simulated
// console.
package testing

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/joeycumines/logiface"

	"github.com/psxgo/psx/debug"
	"github.com/psxgo/psx/hw/gpu"
	"github.com/psxgo/psx/sim"
)

// Env is a simulated machine with a driver attached.
type Env struct {
	*sim.Machine
	Driver *gpu.Driver
	Log    *Recorder
}

type config struct {
	sim   []sim.Option
	gpu   []gpu.Option
	reset bool
}

type Option func(*config)

// Sim passes options to sim.New.
func Sim(opts ...sim.Option) Option {
	return func(c *config) { c.sim = append(c.sim, opts...) }
}

// Driver passes options to gpu.New.
func Driver(opts ...gpu.Option) Option {
	return func(c *config) { c.gpu = append(c.gpu, opts...) }
}

// NoReset skips the initial gpu.ResetFull.
func NoReset() Option {
	return func(c *config) { c.reset = false }
}

// New returns a machine and a driver logging to t.  Unless NoReset is given,
// the driver is reset with gpu.ResetFull.
func New(t testing.TB, opts ...Option) *Env {
	t.Helper()

	rec := NewRecorder(t)
	logger := debug.NewLogger(rec, logiface.LevelDebug)

	cfg := config{reset: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := sim.New(append([]sim.Option{sim.WithLogger(logger)}, cfg.sim...)...)
	d := gpu.New(m.Hardware(), append([]gpu.Option{gpu.WithLogger(logger)}, cfg.gpu...)...)
	if cfg.reset {
		d.Reset(gpu.ResetFull)
	}
	return &Env{Machine: m, Driver: d, Log: rec}
}

// Recorder is an io.Writer which keeps everything written to it and forwards
// it to t.Log while the test runs.
type Recorder struct {
	mtx  sync.Mutex
	t    testing.TB
	done bool
	buf  bytes.Buffer
}

func NewRecorder(t testing.TB) *Recorder {
	r := &Recorder{t: t}
	t.Cleanup(func() {
		r.mtx.Lock()
		r.done = true
		r.mtx.Unlock()
	})
	return r
}

func (r *Recorder) Write(p []byte) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if !r.done {
		r.t.Log(strings.TrimRight(string(p), "\n"))
	}
	return r.buf.Write(p)
}

// Contains returns true if s was logged.
func (r *Recorder) Contains(s string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return strings.Contains(r.buf.String(), s)
}

// Count returns how often s was logged.
func (r *Recorder) Count(s string) int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return strings.Count(r.buf.String(), s)
}

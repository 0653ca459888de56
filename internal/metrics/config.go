// Package metrics implements this module's self-monitoring surface:
// applied/rejected/duplicate message counters plus a periodic
// process-CPU-time sample, grounded on teacher's metrics/config.go
// (Config/DefaultConfig shape) and metrics/cputime_unix.go (see
// DESIGN.md, C12).
package metrics

import "time"

// Config controls metrics collection. Unlike the teacher's InfluxDB-era
// Config, OpChan has no chain metrics backend of its own to push to;
// what survives is the enable switches and the sample interval, with the
// same toml field conventions. EnabledExpensive is not read by this
// package.
type Config struct {
	Enabled          bool          `toml:",omitempty"`
	EnabledExpensive bool          `toml:",omitempty"`
	SampleInterval   time.Duration `toml:",omitempty"`
}

// DefaultConfig mirrors the teacher's DefaultConfig shape.
var DefaultConfig = Config{
	Enabled:        false,
	SampleInterval: 10 * time.Second,
}

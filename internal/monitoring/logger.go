// Package monitoring holds the process-wide progress logger used by commands.
package monitoring

import (
	"log"
	"time"

	"github.com/banshee-data/pmesh/internal/timeutil"
)

// Logf is the command-level progress logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

var clock timeutil.Clock = timeutil.RealClock{}

// SetClock replaces the clock used by Timed. Passing nil restores the real
// clock.
func SetClock(c timeutil.Clock) {
	if c == nil {
		c = timeutil.RealClock{}
	}
	clock = c
}

// Timed logs the start of a step and returns a func that logs its duration.
//
//	done := monitoring.Timed("calculate mesh")
//	defer done()
func Timed(step string) func() {
	start := clock.Now()
	Logf("%s: started", step)
	return func() {
		Logf("%s: done in %s", step, clock.Since(start).Round(time.Millisecond))
	}
}

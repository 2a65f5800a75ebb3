package monitoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/banshee-data/pmesh/internal/timeutil"
)

// capture redirects Logf into a slice for the duration of the test.
func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)

	Logf("built %dx%d mesh", 33, 33)
	if len(*lines) != 1 || (*lines)[0] != "built 33x33 mesh" {
		t.Errorf("unexpected log lines %q", *lines)
	}

	// nil installs a no-op logger.
	SetLogger(nil)
	Logf("dropped")
	if len(*lines) != 1 {
		t.Errorf("no-op logger should not record, got %q", *lines)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}

func TestTimed(t *testing.T) {
	lines := capture(t)

	mock := timeutil.NewMockClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	SetClock(mock)
	t.Cleanup(func() { SetClock(nil) })

	done := Timed("calculate mesh")
	mock.Advance(1500*time.Millisecond + 300*time.Microsecond)
	done()

	want := []string{"calculate mesh: started", "calculate mesh: done in 1.5s"}
	if fmt.Sprint(*lines) != fmt.Sprint(want) {
		t.Errorf("log lines = %q, want %q", *lines, want)
	}
}

func TestSetClock_NilRestoresReal(t *testing.T) {
	SetClock(nil)
	if _, ok := clock.(timeutil.RealClock); !ok {
		t.Errorf("clock = %T, want RealClock", clock)
	}
}

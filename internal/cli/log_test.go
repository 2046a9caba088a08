package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("solving") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("phase finished") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("phase finished") }, true},
		{"warn at info level", log.InfoLevel, func(l *log.Logger) { l.Warn("failed to store run") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestNewLoggerCaller(t *testing.T) {
	var info, debug bytes.Buffer
	newLogger(&info, log.InfoLevel).Info("solving")
	newLogger(&debug, log.DebugLevel).Info("solving")

	if strings.Contains(info.String(), "log_test.go") {
		t.Errorf("info logger should not report the caller: %q", info.String())
	}
	if !strings.Contains(debug.String(), "log_test.go") {
		t.Errorf("debug logger should report the caller: %q", debug.String())
	}
}

func TestSetLogLevelTogglesCaller(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("phase finished")
	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("--verbose should add the caller: %q", buf.String())
	}
}

func TestStopwatch(t *testing.T) {
	var buf bytes.Buffer
	sw := newStopwatch(newLogger(&buf, log.DebugLevel))

	time.Sleep(5 * time.Millisecond)
	sw.lap("read problem")
	if sw.last.Sub(sw.start) < 5*time.Millisecond {
		t.Error("lap should move the split time to now")
	}
	sw.lap("open cache and store")
	sw.done("Solved square", "scalar_product", uint64(5))

	out := buf.String()
	for _, want := range []string{"phase=\"read problem\"", "phase=\"open cache and store\"", "took=", "Solved square", "scalar_product=5", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestStopwatchLapsHiddenAtInfo(t *testing.T) {
	var buf bytes.Buffer
	sw := newStopwatch(newLogger(&buf, log.InfoLevel))
	sw.lap("read problem")
	if buf.Len() != 0 {
		t.Errorf("laps are debug output, got %q", buf.String())
	}
	sw.done("Rendered square", "files", 2)
	if !strings.Contains(buf.String(), "files=2") {
		t.Errorf("done should log its key-values, got %q", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext should fall back to log.Default()")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)
	if loggerFromContext(ctx) != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

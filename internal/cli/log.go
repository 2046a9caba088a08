package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the command logger writing to w at the given level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45"). At debug
// level each line also carries the file and line of the call, which is how
// slow phases of a solve are traced back to the code that logged them.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    level <= log.DebugLevel,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch times the phases of one command: reading the problem, opening
// the cache and store, solving, rendering. Each lap is logged at debug level
// with the time since the previous lap; done logs the total at info level.
//
// A stopwatch belongs to a single command invocation and is not safe for
// concurrent use.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

// newStopwatch starts timing now.
func newStopwatch(l *log.Logger) *stopwatch {
	now := time.Now()
	return &stopwatch{logger: l, start: now, last: now}
}

// lap logs the end of a phase with its duration.
func (s *stopwatch) lap(phase string) {
	now := time.Now()
	s.logger.Debug("phase finished", "phase", phase, "took", now.Sub(s.last).Round(time.Microsecond))
	s.last = now
}

// done logs msg with keyvals and the total elapsed time, rounded to the
// millisecond. Example output: "Solved square scalar_product=5 elapsed=12ms"
func (s *stopwatch) done(msg string, keyvals ...any) {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	s.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx. The root command does this once in its
// pre-run hook so every subcommand and the pipeline share the same logger.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger. Commands run
// outside the root command (tests calling a RunE directly) get log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

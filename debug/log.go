package debug

import (
	"io"
	"os"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the diagnostic sink used by all drivers. Drivers never fail hard,
// they log and return a sentinel instead.
type Logger = logiface.Logger[*stumpy.Event]

// Log is the default logger, used by drivers that weren't given one.
var Log = NewLogger(os.Stderr, logiface.LevelInformational)

// Log lines from interrupt paths can repeat every frame. Messages built with
// Limit() are throttled per call site.
var rateLimits = map[time.Duration]int{
	time.Second: 4,
	time.Minute: 32,
}

// NewLogger returns a JSON logger writing to w. The time field is omitted,
// frame counters are more useful than wall clock time here.
func NewLogger(w io.Writer, level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField(""),
		),
		stumpy.L.WithLevel(level),
		stumpy.L.WithCategoryRateLimits(rateLimits),
	)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(io.Discard, logiface.LevelDisabled)
}

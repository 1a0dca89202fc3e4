package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the logger every command shares. Timestamps read like
// "14:32:01.45"; debug level also reports the calling file so history
// operations can be traced to the command that ran them.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    level <= log.DebugLevel,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times the phases of one render (load, build, write) and logs
// them together when the command finishes. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
	phases []any
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

// phase records the time spent since the previous phase under name.
func (p *progress) phase(name string) {
	now := time.Now()
	p.phases = append(p.phases, name, now.Sub(p.last).Round(time.Millisecond))
	p.last = now
}

// done logs msg with the total elapsed time at info level and the phase
// breakdown at debug level.
func (p *progress) done(msg string) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Infof("%s (%s)", msg, elapsed)
	if len(p.phases) > 0 {
		p.logger.Debug("phases", p.phases...)
	}
}

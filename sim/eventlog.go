package sim

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// EventCategory labels a simulation event for the logging sink.
type EventCategory string

const (
	CatCollect EventCategory = "COLLECT"
	CatArrive  EventCategory = "ARRIVE"
	CatUnload  EventCategory = "UNLOAD"
	CatTrip    EventCategory = "TRIP"
	CatAssign  EventCategory = "ASSIGN"
	CatError   EventCategory = "ERROR"
	CatInfo    EventCategory = "INFO"
)

// LogMode selects the engine's log verbosity.
type LogMode string

const (
	LogNormal LogMode = "normal"
	LogDebug  LogMode = "debug"
)

// EventLog is the engine's logging sink. Every event carries its category and
// the simulated timestamp (minutes since simulation start); formatting and
// filtering are delegated to logrus.
type EventLog struct {
	logger *logrus.Logger
}

// NewEventLog builds an EventLog writing to the process logger at the
// verbosity implied by mode. In normal mode per-minute events (collections,
// arrivals, unload progress) are emitted at debug level and suppressed.
func NewEventLog(mode LogMode) *EventLog {
	logger := logrus.New()
	if mode == LogDebug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return &EventLog{logger: logger}
}

// NewSilentEventLog returns an EventLog that discards everything.
// Used by tests that exercise the engine without caring about output.
func NewSilentEventLog() *EventLog {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &EventLog{logger: logger}
}

// Event records a categorized event at the given simulated minute.
func (l *EventLog) Event(tick int, cat EventCategory, format string, args ...any) {
	entry := l.entry(tick, cat)
	switch cat {
	case CatError:
		entry.Error(fmt.Sprintf(format, args...))
	case CatInfo, CatAssign:
		entry.Info(fmt.Sprintf(format, args...))
	default:
		// High-volume per-minute traffic stays at debug level.
		entry.Debug(fmt.Sprintf(format, args...))
	}
}

func (l *EventLog) entry(tick int, cat EventCategory) *logrus.Entry {
	return l.logger.WithFields(logrus.Fields{
		"tick":     tick,
		"clock":    FormatClock(tick),
		"category": string(cat),
	})
}

// FormatClock renders a simulated minute count as "dayD HH:MM".
func FormatClock(tick int) string {
	day := tick / MinutesPerDay
	minute := tick % MinutesPerDay
	return fmt.Sprintf("day%d %02d:%02d", day+1, minute/60, minute%60)
}

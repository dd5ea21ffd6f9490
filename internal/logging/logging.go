// Package logging wires the package loggers of cryptobit to a console
// handler for the commands.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btclog/v2"

	"github.com/luxfi/cryptobit"
	"github.com/luxfi/cryptobit/internal/queue"
	"github.com/luxfi/cryptobit/internal/worker"
)

// Loggers maps each subsystem identifier to its logger.
type Loggers map[string]btclog.Logger

// Setup creates one logger per subsystem writing to w, hands them to their
// packages and applies levels. levels is either a single level for every
// subsystem or a comma separated list of SUBSYSTEM=level pairs.
func Setup(w io.Writer, levels string) (Loggers, error) {
	root := btclog.NewSLogger(btclog.NewDefaultHandler(w))

	loggers := Loggers{
		cryptobit.Subsystem: root.SubSystem(cryptobit.Subsystem),
		worker.Subsystem:    root.SubSystem(worker.Subsystem),
		queue.Subsystem:     root.SubSystem(queue.Subsystem),
	}

	if err := loggers.SetLevels(levels); err != nil {
		return nil, err
	}

	cryptobit.UseLogger(loggers[cryptobit.Subsystem])
	worker.UseLogger(loggers[worker.Subsystem])
	queue.UseLogger(loggers[queue.Subsystem])

	return loggers, nil
}

// Get returns the logger of subsystem, or a disabled logger.
func (l Loggers) Get(subsystem string) btclog.Logger {
	if logger, ok := l[subsystem]; ok {
		return logger
	}
	return btclog.Disabled
}

// SetLevels parses levels and applies it.
func (l Loggers) SetLevels(levels string) error {
	if levels == "" {
		levels = "info"
	}

	if !strings.Contains(levels, "=") {
		level, ok := btclog.LevelFromString(levels)
		if !ok {
			return fmt.Errorf("invalid log level %q", levels)
		}
		for _, logger := range l {
			logger.SetLevel(level)
		}
		return nil
	}

	for _, pair := range strings.Split(levels, ",") {
		subsystem, lvl, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("invalid log level pair %q", pair)
		}
		logger, ok := l[subsystem]
		if !ok {
			return fmt.Errorf("unknown subsystem %q", subsystem)
		}
		level, ok := btclog.LevelFromString(lvl)
		if !ok {
			return fmt.Errorf("invalid log level %q for %s", lvl, subsystem)
		}
		logger.SetLevel(level)
	}
	return nil
}

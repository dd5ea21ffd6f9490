package queue

import "github.com/btcsuite/btclog/v2"

// Subsystem is the logging tag used for this package.
const Subsystem = "QUEU"

// log is a logger that is initialized as disabled. This means the package will
// not perform any logging by default until a logger is set.
var log = btclog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

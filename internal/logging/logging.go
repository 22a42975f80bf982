// Package logging is the thin logger the rest of the tree calls into.
//
// There is no structured-logging library anywhere in the examples this
// project was grounded on, so this wraps the standard log package rather
// than reaching for one sight unseen. Fatal is for single-shot CLI
// commands (spec.md §7: surface and terminate). Warn is for the
// long-running node, which logs and drops network/decode errors instead
// of dying.
package logging

import "log"

// Fatal logs err and terminates the process. Used by one-shot CLI
// commands and by anything touching the chain store, where spec.md §7
// treats I/O failure as fatal.
func Fatal(err error) {
	if err != nil {
		log.Panic(err)
	}
}

// Warn logs a recoverable condition without terminating the process.
// Used by the P2P server for malformed frames, network errors, and
// dropped invalid transactions/blocks.
func Warn(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// Info logs a normal operational message.
func Info(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// Package diag accumulates the per-item and emission diagnostics that spec
// §7 says must be logged and skipped rather than aborting the run. Loaders
// and the generator share this type so the CLI can print one summary line
// regardless of which stage produced the warnings.
package diag

import (
	"fmt"
	"log"
)

// Log collects Warnf/Skipf messages without failing the run.
type Log struct {
	entries []string
}

// Warnf records a recoverable per-item problem (e.g. unresolved mode name).
func (l *Log) Warnf(format string, args ...interface{}) {
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

// Skipf records that some unit (a register, a peripheral, a field) was
// dropped entirely because of a per-item or emission failure.
func (l *Log) Skipf(format string, args ...interface{}) {
	l.Warnf("skipped: "+format, args...)
}

// Flush writes every accumulated entry to the standard logger, prefixed so
// it is clear these are accumulated diagnostics and not a fatal error.
func (l *Log) Flush(prefix string) {
	for _, e := range l.entries {
		log.Printf("%s: %s", prefix, e)
	}
}

// Count returns how many diagnostics were recorded.
func (l *Log) Count() int {
	return len(l.entries)
}

// Entries exposes the recorded diagnostics, e.g. for tests.
func (l *Log) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package logger implements a capped, in-memory log used throughout the
// debug-adapter process. Every non-fatal condition worth reporting is
// recorded here before (where applicable) being surfaced as a wire event.
package logger

import (
	"fmt"
	"io"
	"sync"
)

// Permission is consulted before an entry is recorded. This allows callers
// to silence noisy tags (a particular cartridge type, a particular request
// source) without threading a bool through every call site.
type Permission interface {
	AllowLogging() bool
}

// Allow is the permission used when a caller has no reason to suppress
// logging.
var Allow = alwaysAllow{}

type alwaysAllow struct{}

func (alwaysAllow) AllowLogging() bool { return true }

type entry struct {
	tag    string
	detail string
}

// Logger is a fixed-capacity ring of log entries.
type Logger struct {
	crit    sync.Mutex
	entries []entry
	cap     int
}

// NewLogger creates a Logger that retains at most capacity entries, the
// oldest being discarded first.
func NewLogger(capacity int) *Logger {
	if capacity <= 0 {
		capacity = 1
	}
	return &Logger{
		entries: make([]entry, 0, capacity),
		cap:     capacity,
	}
}

// format turns the detail argument into a string. error and fmt.Stringer
// values are special-cased; everything else falls through to the %v verb.
func format(detail interface{}) string {
	switch v := detail.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Log records an entry if perm allows it.
func (l *Logger) Log(perm Permission, tag string, detail interface{}) {
	if perm == nil || !perm.AllowLogging() {
		return
	}

	l.crit.Lock()
	defer l.crit.Unlock()

	if len(l.entries) >= l.cap {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry{tag: tag, detail: format(detail)})
}

// Logf records an entry if perm allows it, formatting detail with the
// supplied pattern first.
func (l *Logger) Logf(perm Permission, tag string, pattern string, values ...interface{}) {
	l.Log(perm, tag, fmt.Sprintf(pattern, values...))
}

// Clear empties the log.
func (l *Logger) Clear() {
	l.crit.Lock()
	defer l.crit.Unlock()
	l.entries = l.entries[:0]
}

// Write writes every retained entry to w, one per line, in the form
// "tag: detail".
func (l *Logger) Write(w io.Writer) {
	l.crit.Lock()
	defer l.crit.Unlock()
	for _, e := range l.entries {
		fmt.Fprintf(w, "%s: %s\n", e.tag, e.detail)
	}
}

// Tail writes the most recent n entries to w, one per line. Asking for more
// entries than are retained is not an error; every retained entry is
// written in that case.
func (l *Logger) Tail(w io.Writer, n int) {
	l.crit.Lock()
	defer l.crit.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	for _, e := range l.entries[len(l.entries)-n:] {
		fmt.Fprintf(w, "%s: %s\n", e.tag, e.detail)
	}
}

// central is the package-level logger used by convenience functions.
var central = NewLogger(1000)

// Log records an entry in the package-level logger, always allowed.
func Log(tag string, detail interface{}) {
	central.Log(Allow, tag, detail)
}

// Logf records a formatted entry in the package-level logger, always
// allowed.
func Logf(tag string, pattern string, values ...interface{}) {
	central.Logf(Allow, tag, pattern, values...)
}

// Write writes the package-level logger's entries to w.
func Write(w io.Writer) {
	central.Write(w)
}

// Tail writes the package-level logger's most recent n entries to w.
func Tail(w io.Writer, n int) {
	central.Tail(w, n)
}

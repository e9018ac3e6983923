package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/teranos/geodex/errors"
)

// ErrorLog collects one line per recorded failure or warning during a run.
// Scoped to a single run; safe for concurrent appends.
type ErrorLog struct {
	mu    sync.Mutex
	lines []string
}

// Record appends a failure record to the log.
func (l *ErrorLog) Record(f FailureRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, f.LogLine())
}

// Warnf appends a timestamped free-form warning line.
func (l *ErrorLog) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s - %s", time.Now().Format(ISO8601), fmt.Sprintf(format, args...))
	l.lines = append(l.lines, line)
}

// Lines returns a copy of the collected log lines.
func (l *ErrorLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len reports the number of collected lines.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// WriteTo persists the log as geodex_<timestamp>.log inside dir and returns
// the written file's URI. An empty log still produces a file so callers can
// rely on the reported location.
func (l *ErrorLog) WriteTo(dir string) (string, error) {
	name := "geodex_" + time.Now().Format("20060102T150405") + ".log"
	path := filepath.Join(dir, name)

	content := strings.Join(l.Lines(), "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "write error log %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return FileURI(abs), nil
}

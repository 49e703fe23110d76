// Package found implements the durable terminal latch: a one-shot
// "password found" flag backed by a human-readable marker file.
package found

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Latch is the durable found flag. Presence of the marker file means
// "found". The in-memory bit is loaded once at startup; every
// confirmation appends a stanza to the marker without clearing the bit,
// so repeated confirmations leave an audit trail on disk.
type Latch struct {
	mu   sync.Mutex
	path string
	set  bool

	now func() time.Time
}

// Open creates a latch bound to the marker file at path and loads its
// current state.
func Open(path string) (*Latch, error) {
	l := &Latch{path: path, now: time.Now}
	if _, err := os.Stat(path); err == nil {
		l.set = true
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to probe marker file %q: %w", path, err)
	}
	return l, nil
}

// IsSet reports whether the latch is set.
func (l *Latch) IsSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set
}

// Set marks the latch and appends a confirmation stanza to the marker
// file. The append happens before Set returns so a crash immediately
// after still leaves the latch durable. Safe to call repeatedly: the
// in-memory bit is set once, the marker grows by one stanza per call.
func (l *Latch) Set(workerID, pwd string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open marker file %q: %w", l.path, err)
	}
	defer f.Close()

	stanza := fmt.Sprintf("time: %s\nclient: %s\npassword: %s\n---\n",
		l.now().UTC().Format(time.RFC3339), workerID, pwd)
	if _, err := f.WriteString(stanza); err != nil {
		return fmt.Errorf("failed to append to marker file %q: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync marker file %q: %w", l.path, err)
	}

	l.set = true
	return nil
}

// Reset clears the latch, backing the marker file up with a timestamped
// copy so the prior confirmations remain auditable. A missing marker is
// not an error.
func (l *Latch) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err == nil {
		backup := fmt.Sprintf("%s.%d.bak", l.path, l.now().UnixMilli())
		if err := os.Rename(l.path, backup); err != nil {
			return fmt.Errorf("failed to back up marker file %q: %w", l.path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to probe marker file %q: %w", l.path, err)
	}

	l.set = false
	return nil
}

// Path returns the marker file path.
func (l *Latch) Path() string {
	return l.path
}

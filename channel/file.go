// Package channel implements the file-mediated message channels shared
// with the strategy-side process. Each channel is a single JSON file that
// holds at most one unprocessed message; writers replace its contents
// wholesale, readers detect change by content.
//
// The files are the only mutable state shared with a process outside our
// control, so every access takes an advisory lock with a bounded
// retry-and-backoff budget and gives up rather than stall the control
// loop.
package channel

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// ErrUnavailable means the channel file could not be acquired within the
// retry budget. Callers skip the operation for this tick and try again on
// the next one; it is never fatal.
var ErrUnavailable = errors.New("channel unavailable")

const (
	defaultAttempts = 5
	defaultBackoff  = 10 * time.Millisecond
)

type File struct {
	path string
	lock *flock.Flock

	attempts int
	backoff  time.Duration

	lastSum  [sha256.Size]byte
	haveLast bool
}

type Option func(*File)

// WithRetry overrides the lock acquisition budget.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(f *File) {
		if attempts > 0 {
			f.attempts = attempts
		}
		if backoff > 0 {
			f.backoff = backoff
		}
	}
}

// New returns a channel backed by the file at path. The lock lives in a
// sidecar "<path>.lock" file so atomic renames of the data file never
// touch the locked inode.
func New(path string, opts ...Option) *File {
	f := &File{
		path:     path,
		lock:     flock.New(path + ".lock"),
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *File) Path() string { return f.path }

func (f *File) acquire() error {
	for i := 0; i < f.attempts; i++ {
		ok, err := f.lock.TryLock()
		if err == nil && ok {
			return nil
		}
		time.Sleep(f.backoff)
	}
	return ErrUnavailable
}

// Replace atomically swaps the channel contents: write to a temp file in
// the same directory, then rename over the channel file. A reader never
// observes a partial write from us.
func (f *File) Replace(data []byte) error {
	if err := f.acquire(); err != nil {
		return err
	}
	defer f.lock.Unlock()

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename %s: %w", f.path, err)
	}
	return nil
}

// ReadChanged returns the channel contents together with whether they
// differ from the last contents this reader observed. A missing file reads
// as unchanged. The external writer is free to rewrite the file between
// polls; only the latest content is ever seen.
func (f *File) ReadChanged() ([]byte, bool, error) {
	if err := f.acquire(); err != nil {
		return nil, false, err
	}
	defer f.lock.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", f.path, err)
	}

	sum := sha256.Sum256(data)
	if f.haveLast && sum == f.lastSum {
		return data, false, nil
	}
	f.lastSum = sum
	f.haveLast = true
	return data, true, nil
}

// Prime marks the current channel contents as already seen without
// returning them, so a command left over from before this process started
// is not replayed. Lock failures are ignored; worst case the first
// ReadChanged reports the stale content as new.
func (f *File) Prime() {
	_, _, _ = f.ReadChanged()
}

package web

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	// TailBytes is how much of the log a newly connected client receives.
	TailBytes = 64 << 10
	// PollInterval is used when file notifications are unavailable.
	PollInterval = time.Second
)

// LogTailer streams what gets appended to a log file.
type LogTailer struct {
	path string
	log  zerolog.Logger

	mu     sync.Mutex
	offset int64
}

// NewLogTailer starts tailing from the current end of path. A missing file starts at zero.
func NewLogTailer(path string, log zerolog.Logger) *LogTailer {
	t := &LogTailer{path: filepath.Clean(path), log: log}
	if st, err := os.Stat(t.path); err == nil {
		t.offset = st.Size()
	}
	return t
}

// Tail returns at most max trailing bytes of the file.
func (t *LogTailer) Tail(max int64) (string, error) {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", err
	}
	start := st.Size() - max
	if start < 0 {
		start = 0
	}
	return readRange(f, start, st.Size())
}

// Delta returns bytes appended since the previous call. A file that shrank is reread from the start.
func (t *LogTailer) Delta() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		t.offset = 0
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := st.Size()
	from := t.offset
	if size < from {
		from = 0
	}
	if size == from {
		t.offset = size
		return "", nil
	}
	chunk, err := readRange(f, from, size)
	if err != nil {
		return "", err
	}
	t.offset = size
	return chunk, nil
}

func readRange(f *os.File, from, to int64) (string, error) {
	buf := make([]byte, to-from)
	n, err := f.ReadAt(buf, from)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return string(buf[:n]), nil
}

// Watch calls emit with every non-empty delta until ctx is done.
// It relies on fsnotify and falls back to polling when the watcher cannot be set up.
func (t *LogTailer) Watch(ctx context.Context, emit func(string)) {
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		err = watcher.Add(filepath.Dir(t.path))
		if err != nil {
			watcher.Close()
		}
	}
	if err != nil {
		t.log.Warn().Err(err).Str("path", t.path).Msg("log watch unavailable, polling")
		t.poll(ctx, emit)
		return
	}
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != t.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			t.emitDelta(emit)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			t.log.Warn().Err(werr).Msg("log watch error")
		}
	}
}

func (t *LogTailer) poll(ctx context.Context, emit func(string)) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.emitDelta(emit)
		}
	}
}

func (t *LogTailer) emitDelta(emit func(string)) {
	chunk, err := t.Delta()
	if err != nil {
		t.log.Debug().Err(err).Msg("read log delta")
		return
	}
	if chunk != "" {
		emit(chunk)
	}
}

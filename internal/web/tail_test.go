package web

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func appendFile(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestTailerDeltaAndTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendFile(t, path, "old\n")
	tailer := NewLogTailer(path, zerolog.Nop())

	if got, _ := tailer.Delta(); got != "" {
		t.Fatalf("existing content must not be replayed, got %q", got)
	}
	appendFile(t, path, "one\n")
	if got, _ := tailer.Delta(); got != "one\n" {
		t.Fatalf("unexpected delta %q", got)
	}
	if got, _ := tailer.Delta(); got != "" {
		t.Fatalf("expected empty delta, got %q", got)
	}

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if got, _ := tailer.Delta(); got != "new\n" {
		t.Fatalf("expected reread after truncation, got %q", got)
	}
}

func TestTailerTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	tailer := NewLogTailer(path, zerolog.Nop())
	if got, err := tailer.Tail(TailBytes); err != nil || got != "" {
		t.Fatalf("missing file should give empty tail, got %q %v", got, err)
	}
	appendFile(t, path, strings.Repeat("a", 10)+"0123456789")
	got, err := tailer.Tail(10)
	if err != nil || got != "0123456789" {
		t.Fatalf("unexpected tail %q %v", got, err)
	}
}

func TestTailerWatchEmitsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendFile(t, path, "")
	tailer := NewLogTailer(path, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan string, 16)
	go tailer.Watch(ctx, func(chunk string) { got <- chunk })

	deadline := time.After(5 * time.Second)
	var seen strings.Builder
	for !strings.Contains(seen.String(), "line\n") {
		select {
		case chunk := <-got:
			seen.WriteString(chunk)
		case <-time.After(50 * time.Millisecond):
			if seen.Len() == 0 {
				appendFile(t, path, "line\n")
			}
		case <-deadline:
			t.Fatalf("no delta observed, got %q", seen.String())
		}
	}
}

package wal

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
)

func TestCheckpointerFlushesAndMarks(t *testing.T) {
	dir := t.TempDir()
	j := openJournal(t, dir)
	defer j.Close()

	for _, ev := range metaEvents(3) {
		if err := j.Append(ev); err != nil {
			t.Fatal(err)
		}
	}

	flushes := 0
	c := NewCheckpointer(j, func() int { return 3 }, func() error {
		flushes++
		return nil
	})

	if err := c.Checkpoint(); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if flushes != 1 {
		t.Errorf("expected 1 flush, got %d", flushes)
	}

	// The marker must be the newest record and carry the flushed version
	files, err := j.findFiles()
	if err != nil {
		t.Fatal(err)
	}
	entries, err := ReadAll(files)
	if err != nil {
		t.Fatal(err)
	}
	last := entries[len(entries)-1]
	if last.Op != OpCheckpoint {
		t.Fatalf("expected checkpoint marker last, got %s", last)
	}
	if last.Version != 3 {
		t.Errorf("marker version: got %d, want 3", last.Version)
	}

	// Everything before the marker is no longer pending
	pending, err := NewRecovery(j).Pending(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending events after checkpoint, got %d", len(pending))
	}
}

func TestCheckpointerFlushFailureWritesNoMarker(t *testing.T) {
	dir := t.TempDir()
	j := openJournal(t, dir)
	defer j.Close()

	if err := j.Append(metaEvents(1)[0]); err != nil {
		t.Fatal(err)
	}

	c := NewCheckpointer(j, func() int { return 1 }, func() error {
		return fmt.Errorf("disk full")
	})
	if err := c.Checkpoint(); err == nil {
		t.Fatal("expected checkpoint to fail when flush fails")
	}

	files, _ := j.findFiles()
	entries, err := ReadAll(files)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if entry.Op == OpCheckpoint {
			t.Error("marker written despite failed flush")
		}
	}
}

func TestCheckpointDropsRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	j := openJournal(t, dir)
	defer j.Close()

	// Force a rotation, then checkpoint past everything
	f := event.NewFactory(event.WithNow(testClock()))
	chunk := strings.Repeat("b", 1<<20)
	for i := 0; i < 10; i++ {
		if err := j.Append(f.TextChanged(i+1, "text-1", 0, 0, chunk, "", chunk)); err != nil {
			t.Fatal(err)
		}
	}

	files, err := j.findFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) < 2 {
		t.Fatalf("expected rotation before checkpoint, got %d files", len(files))
	}

	if err := j.Checkpoint(10); err != nil {
		t.Fatal(err)
	}

	files, err = j.findFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("expected only the current file after checkpoint, got %d", len(files))
	}

	pending, err := NewRecovery(j).Pending(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("expected nothing pending after checkpoint, got %d", len(pending))
	}
}

func TestCheckpointerBackgroundLoop(t *testing.T) {
	dir := t.TempDir()
	j := openJournal(t, dir)
	defer j.Close()

	var mu sync.Mutex
	flushes := 0
	c := NewCheckpointer(j, func() int { return 0 }, func() error {
		mu.Lock()
		flushes++
		mu.Unlock()
		return nil
	})
	c.SetInterval(10 * time.Millisecond)

	c.Start()
	time.Sleep(80 * time.Millisecond)
	c.Stop()

	mu.Lock()
	got := flushes
	mu.Unlock()
	if got == 0 {
		t.Error("expected at least one background checkpoint")
	}

	// Stop must be idempotent-safe for the ticker goroutine: no further
	// flushes after it returns
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	after := flushes
	mu.Unlock()
	if after != got {
		t.Errorf("checkpointer kept running after Stop: %d -> %d", got, after)
	}
}

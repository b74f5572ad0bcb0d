package wal

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultCheckpointInterval is how often checkpoints are created
	DefaultCheckpointInterval = 10 * time.Minute
)

// Checkpointer periodically persists the live document and marks the
// journal so recovery can skip everything already captured.
type Checkpointer struct {
	journal  *Journal
	version  func() int
	flushFn  func() error
	interval time.Duration
	log      zerolog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewCheckpointer creates a checkpointer. version reports the current
// document version and flushFn persists the state it belongs to.
func NewCheckpointer(j *Journal, version func() int, flushFn func() error) *Checkpointer {
	return &Checkpointer{
		journal:  j,
		version:  version,
		flushFn:  flushFn,
		interval: DefaultCheckpointInterval,
		log:      zerolog.Nop(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start starts the background checkpointing process
func (c *Checkpointer) Start() {
	go c.run()
}

// Stop stops the checkpointer
func (c *Checkpointer) Stop() {
	close(c.stopCh)
	<-c.doneCh // Wait for goroutine to finish
}

// run is the main checkpointing loop
func (c *Checkpointer) run() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Checkpoint(); err != nil {
				c.log.Error().Err(err).Msg("Checkpoint failed")
			}

		case <-c.stopCh:
			return
		}
	}
}

// Checkpoint flushes the document and writes a checkpoint marker. The
// version is sampled before flushing so the marker never claims more
// than the flush persisted.
func (c *Checkpointer) Checkpoint() error {
	version := c.version()

	// 1. Flush in-memory state to disk
	if err := c.flushFn(); err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}

	// 2. Write checkpoint marker and drop obsolete journal files
	if err := c.journal.Checkpoint(version); err != nil {
		return fmt.Errorf("write checkpoint entry failed: %w", err)
	}

	c.log.Debug().Int("version", version).Msg("Checkpoint complete")
	return nil
}

// SetInterval changes the checkpoint interval
func (c *Checkpointer) SetInterval(interval time.Duration) {
	c.interval = interval
}

// SetLogger changes the checkpointer's logger
func (c *Checkpointer) SetLogger(log zerolog.Logger) {
	c.log = log
}

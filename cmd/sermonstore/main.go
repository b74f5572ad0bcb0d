// Sermon document engine server
// Serves one editing session over a JSON HTTP API with a WebSocket change feed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Blakthorne/whispersermons-sub001/internal/config"
	"github.com/Blakthorne/whispersermons-sub001/internal/logger"
	"github.com/Blakthorne/whispersermons-sub001/internal/metrics"
	"github.com/Blakthorne/whispersermons-sub001/internal/server"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
	"github.com/Blakthorne/whispersermons-sub001/pkg/mutator"
	"github.com/Blakthorne/whispersermons-sub001/pkg/snapshot"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
	"github.com/Blakthorne/whispersermons-sub001/pkg/wal"
)

var (
	configPath   = flag.String("config", "", "Configuration file path (YAML)")
	port         = flag.Int("port", 0, "API port (overrides the config file)")
	snapshotPath = flag.String("snapshot", "", "Snapshot file path (overrides the config file)")
	journalPath  = flag.String("journal", "", "Journal file path (overrides the config file)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *snapshotPath != "" {
		cfg.Snapshot.Path = *snapshotPath
	}
	if *journalPath != "" {
		cfg.Journal.Path = *journalPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.InitGlobalLogger(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log := logger.GetGlobalLogger()
	log.LogServerStart(cfg.Server.Port, cfg.Snapshot.Path)

	sessionOpts := []mutator.Option{
		mutator.WithLimits(cfg.Limits()),
		mutator.WithLogger(*log.GetZerolog()),
	}

	session, fresh, err := loadSession(cfg, log, sessionOpts)
	if err != nil {
		log.Fatal("Failed to load snapshot").Err(err).Str("path", cfg.Snapshot.Path).Send()
	}

	var journal *wal.Journal
	if cfg.Journal.Path != "" {
		journal = &wal.Journal{Path: cfg.Journal.Path}
		if err := journal.Open(); err != nil {
			log.Fatal("Failed to open journal").Err(err).Str("path", cfg.Journal.Path).Send()
		}
		if fresh {
			// A fresh document gets baselined at once; without the snapshot
			// anchor the journal could never be replayed.
			discardStaleJournal(log, journal)
			if err := baseline(cfg, journal, session.State()); err != nil {
				log.Fatal("Failed to baseline fresh document").Err(err).Send()
			}
		} else {
			session, err = replayJournal(cfg, log, journal, session, sessionOpts)
			if err != nil {
				log.Fatal("Journal recovery failed").Err(err).Send()
			}
		}
		attachJournal(log, journal, session)
	}

	met := metrics.NewMetrics()
	srv := server.NewServer(server.Config{
		Mutator: session,
		Logger:  log,
		Metrics: met,
		Restore: func(st *state.State) *mutator.Mutator {
			m := mutator.NewFromState(st, sessionOpts...)
			if journal != nil {
				// The restored state abandons the journaled timeline; mark
				// everything before it obsolete.
				if err := baseline(cfg, journal, st); err != nil {
					log.Error("Checkpoint after restore failed").Err(err).Send()
				}
				attachJournal(log, journal, m)
			}
			return m
		},
	})

	var ckpt *wal.Checkpointer
	if journal != nil {
		ckpt = wal.NewCheckpointer(journal,
			func() int { return srv.State().Version },
			func() error { return saveSnapshot(cfg, srv.State()) },
		)
		ckpt.SetLogger(*log.GetZerolog())
		if cfg.Journal.CheckpointMinutes > 0 {
			ckpt.SetInterval(time.Duration(cfg.Journal.CheckpointMinutes) * time.Minute)
		}
		ckpt.Start()
	}

	api := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	obs := server.NewObservabilityServer(cfg.Server.ObservabilityPort, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.LogServerReady(cfg.Server.Port)
		if err := api.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	g.Go(obs.Start)
	g.Go(func() error {
		<-ctx.Done()
		log.LogServerShutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Warn("API shutdown incomplete").Err(err).Send()
		}
		return obs.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error").Err(err).Send()
	}

	if ckpt != nil {
		ckpt.Stop()
	}

	failed := false
	if cfg.Snapshot.SaveOnExit && cfg.Snapshot.Path != "" {
		if err := saveSnapshot(cfg, srv.State()); err != nil {
			log.Error("Failed to save snapshot").Err(err).Str("path", cfg.Snapshot.Path).Send()
			failed = true
		} else {
			log.Info("Snapshot saved").Str("path", cfg.Snapshot.Path).Send()
			if journal != nil {
				if err := journal.Checkpoint(srv.State().Version); err != nil {
					log.Warn("Final checkpoint failed").Err(err).Send()
				}
			}
		}
	}
	if journal != nil {
		if err := journal.Close(); err != nil {
			log.Warn("Journal close failed").Err(err).Send()
		}
	}
	if failed {
		os.Exit(1)
	}
}

// loadSession boots the editing session, from the configured snapshot
// when one exists and fresh otherwise.
func loadSession(cfg *config.Config, log *logger.Logger, opts []mutator.Option) (*mutator.Mutator, bool, error) {
	if cfg.Snapshot.Path == "" {
		return mutator.New(opts...), true, nil
	}
	data, err := os.ReadFile(cfg.Snapshot.Path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("No snapshot found, starting empty").Str("path", cfg.Snapshot.Path).Send()
		return mutator.New(opts...), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	st, err := snapshot.Deserialize(data)
	if err != nil {
		return nil, false, err
	}
	log.Info("Snapshot loaded").
		Str("path", cfg.Snapshot.Path).
		Int("version", st.Version).
		Int("events", len(st.EventLog)).
		Send()
	return mutator.NewFromState(st, opts...), false, nil
}

// replayJournal folds journaled events newer than the loaded snapshot back
// into the session, then re-baselines so the next boot starts clean.
func replayJournal(cfg *config.Config, log *logger.Logger, journal *wal.Journal, session *mutator.Mutator, opts []mutator.Option) (*mutator.Mutator, error) {
	pending, err := wal.NewRecovery(journal).Pending(session.Version())
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return session, nil
	}

	st, applied, err := state.ApplyAll(session.State(), pending, cfg.Limits(), state.ApplyAllOptions{StopOnError: true})
	if err != nil {
		// The prefix that applied is still worth keeping; the rest is
		// unrecoverable and will be dropped by the baseline below.
		log.Warn("Journal replay stopped early").
			Err(err).
			Int("applied", len(applied)).
			Int("pending", len(pending)).
			Send()
	}
	log.Info("Journal replayed").
		Int("events", len(applied)).
		Int("version", st.Version).
		Send()

	if err := baseline(cfg, journal, st); err != nil {
		return nil, err
	}
	return mutator.NewFromState(st, opts...), nil
}

// discardStaleJournal warns about journal entries that can no longer be
// replayed because their snapshot anchor is gone.
func discardStaleJournal(log *logger.Logger, journal *wal.Journal) {
	pending, err := wal.NewRecovery(journal).Pending(0)
	if err != nil {
		log.Warn("Journal unreadable, discarding").Err(err).Send()
		return
	}
	if len(pending) > 0 {
		log.Warn("Journal holds events but no snapshot was found, discarding them").
			Int("events", len(pending)).
			Send()
	}
}

// baseline persists st as the snapshot and marks the journal so recovery
// starts from it.
func baseline(cfg *config.Config, journal *wal.Journal, st *state.State) error {
	if err := saveSnapshot(cfg, st); err != nil {
		return err
	}
	return journal.Checkpoint(st.Version)
}

// attachJournal forwards every applied event into the journal.
func attachJournal(log *logger.Logger, journal *wal.Journal, m *mutator.Mutator) {
	m.Subscribe(func(_ *state.State, ev *event.Event) {
		if err := journal.Append(ev); err != nil {
			log.Error("Journal append failed").Err(err).Str("event_id", ev.ID).Send()
		}
	})
}

func saveSnapshot(cfg *config.Config, st *state.State) error {
	data, err := snapshot.Serialize(st, snapshot.Options{
		IncludeEventLog: cfg.Snapshot.IncludeEventLog,
		MaxEvents:       cfg.Snapshot.MaxEvents,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.Snapshot.Path, data, 0o644)
}

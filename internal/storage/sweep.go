package storage

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/swiftbase/swiftbase/internal/database"
)

// Sweeper reconciles the filesystem backend against the _sb_files
// table on a cron schedule: orphaned payloads (no metadata row) are
// deleted, and metadata rows whose payload vanished are deleted too.
// Failures are logged, never surfaced to clients.
type Sweeper struct {
	db       *database.DB
	backend  *FilesystemBackend
	cron     *cron.Cron
	schedule string
}

func NewSweeper(db *database.DB, backend *FilesystemBackend, schedule string) *Sweeper {
	if schedule == "" {
		schedule = "@every 1h"
	}
	return &Sweeper{
		db:       db,
		backend:  backend,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start registers the sweep job and begins the cron scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("file sweep failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

// RunOnce performs one sweep pass: orphaned files on disk are removed,
// then metadata rows with no backing payload are removed.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	keys, err := s.backend.ListKeys(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(keys))
	rows, err := s.db.QueryContext(ctx, `SELECT stored_name FROM _sb_files`)
	if err != nil {
		return err
	}
	var storedNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		storedNames = append(storedNames, name)
		known[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	var orphanedPayloads, orphanedRows int

	for _, key := range keys {
		if !known[key] {
			if err := s.backend.Delete(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("sweep: failed to delete orphaned payload")
				continue
			}
			orphanedPayloads++
		}
	}

	for _, storedName := range storedNames {
		exists, err := s.backend.Exists(ctx, storedName)
		if err != nil {
			log.Warn().Err(err).Str("stored_name", storedName).Msg("sweep: failed to stat payload")
			continue
		}
		if exists {
			continue
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM _sb_files WHERE stored_name = ?`, storedName); err != nil {
			log.Warn().Err(err).Str("stored_name", storedName).Msg("sweep: failed to delete orphaned row")
			continue
		}
		orphanedRows++
	}

	if orphanedPayloads > 0 || orphanedRows > 0 {
		log.Info().Int("orphaned_payloads", orphanedPayloads).Int("orphaned_rows", orphanedRows).Msg("file sweep completed")
	}
	return nil
}

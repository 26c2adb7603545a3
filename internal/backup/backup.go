// Package backup writes timestamped CSV copies of the ledger on a schedule.
package backup

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/carpool/internal/metrics"
	"github.com/mmynk/carpool/internal/session"
)

// DefaultSchedule runs every day at 03:00 UTC (seconds precision).
const DefaultSchedule = "0 0 3 * * *"

// Exporter writes the ledger as CSV. *session.Session implements it.
type Exporter interface {
	ExportCSV(w io.Writer) error
}

// Config controls where and how often backups are taken.
type Config struct {
	Schedule string
	Dir      string
	// Keep is how many backups to retain; 0 keeps all of them.
	Keep int
}

// Scheduler manages the backup cron job.
type Scheduler struct {
	cron     *cron.Cron
	exporter Exporter
	cfg      Config
	now      func() time.Time
}

// NewScheduler creates the backup directory and registers the job.
func NewScheduler(exporter Exporter, cfg Config) (*Scheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:     c,
		exporter: exporter,
		cfg:      cfg,
		now:      time.Now,
	}

	if _, err := c.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Backup scheduler started", "schedule", s.cfg.Schedule, "dir", s.cfg.Dir)
}

// Stop waits for a running backup to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Backup scheduler stopped")
}

// Next returns when the next backup is due.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	path, err := s.RunOnce()
	if err != nil {
		metrics.Backups.WithLabelValues("error").Inc()
		slog.Error("Backup failed", "error", err)
		return
	}
	metrics.Backups.WithLabelValues("ok").Inc()
	slog.Info("Backup written", "path", path)
}

// RunOnce writes a backup now and prunes old ones. It returns the new file's path.
func (s *Scheduler) RunOnce() (string, error) {
	path := filepath.Join(s.cfg.Dir, session.BackupName(s.now()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	if err := s.exporter.ExportCSV(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to export backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close backup: %w", err)
	}

	if err := s.prune(); err != nil {
		slog.Warn("Failed to prune old backups", "error", err)
	}
	return path, nil
}

// prune removes the oldest backups beyond cfg.Keep. Backup names sort
// chronologically.
func (s *Scheduler) prune() error {
	if s.cfg.Keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "trips_") && strings.HasSuffix(e.Name(), ".csv") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	for len(names) > s.cfg.Keep {
		if err := os.Remove(filepath.Join(s.cfg.Dir, names[0])); err != nil {
			return err
		}
		slog.Debug("Old backup removed", "name", names[0])
		names = names[1:]
	}
	return nil
}

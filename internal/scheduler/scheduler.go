package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/connexx-dev/connexx/internal/backup"
	"github.com/connexx-dev/connexx/internal/config"
	"github.com/connexx-dev/connexx/internal/monitoring"
	"github.com/connexx-dev/connexx/internal/security"
)

// Job is a named periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func() error
}

// Scheduler runs the recurring maintenance jobs: reputation list
// refresh, expired blacklist cleanup, error retention and backups.
type Scheduler struct {
	jobs   []Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler builds the standard job set from the configured
// components.
func NewScheduler(cfg config.Config, manager *security.Manager, reports *monitoring.Reports, snapshotter *backup.Snapshotter) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	jobs := []Job{
		{
			Name:     "security_list_refresh",
			Interval: manager.RefreshInterval(),
			Run:      manager.LoadLists,
		},
		{
			Name:     "blacklist_cleanup",
			Interval: time.Duration(cfg.CleanupIntervalMinutes) * time.Minute,
			Run: func() error {
				removed, err := manager.CleanupExpiredBlacklists()
				if err != nil {
					return err
				}
				if removed > 0 {
					log.Printf("Deactivated %d expired blacklist entries", removed)
				}
				return nil
			},
		},
		{
			Name:     "error_retention",
			Interval: time.Duration(cfg.CleanupIntervalMinutes) * time.Minute,
			Run: func() error {
				deleted, err := reports.CleanupOldErrors(cfg.ErrorRetentionDays)
				if err != nil {
					return err
				}
				if deleted > 0 {
					log.Printf("Deleted %d error rows past retention", deleted)
				}
				return nil
			},
		},
		{
			Name:     "backup_snapshot",
			Interval: time.Duration(cfg.SnapshotIntervalMinutes) * time.Minute,
			Run: func() error {
				if _, err := snapshotter.Snapshot(); err != nil {
					return err
				}
				_, err := snapshotter.Cleanup()
				return err
			},
		},
	}

	return &Scheduler{jobs: jobs, ctx: ctx, cancel: cancel}
}

// Start launches one goroutine per job. Each job also runs once
// immediately so a fresh deployment starts from a known state.
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	for _, job := range s.jobs {
		s.wg.Add(1)

		go func(job Job) {
			defer s.wg.Done()

			if err := job.Run(); err != nil {
				log.Printf("Scheduled job %s failed: %v", job.Name, err)
			}

			ticker := time.NewTicker(job.Interval)
			defer ticker.Stop()

			for {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					if err := job.Run(); err != nil {
						log.Printf("Scheduled job %s failed: %v", job.Name, err)
					}
				}
			}
		}(job)
	}

	log.Printf("Scheduler started with %d jobs", len(s.jobs))
}

// Stop cancels all jobs and waits for them to finish.
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cancel()
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

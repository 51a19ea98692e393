package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is the subset of a structured logger used by RetentionJob.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// RetentionJob prunes history older than the user's retention setting on a
// cron schedule.
type RetentionJob struct {
	svc      *Service
	schedule string
	logger   Logger
	cron     *cron.Cron
}

// NewRetentionJob parses schedule (standard cron syntax or a descriptor such
// as "@daily") and returns a job ready to Start.
func NewRetentionJob(svc *Service, schedule string, logger Logger) (*RetentionJob, error) {
	j := &RetentionJob{svc: svc, schedule: schedule, logger: logger, cron: cron.New()}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("parsing retention schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start begins running the schedule in the background.
func (j *RetentionJob) Start() {
	j.cron.Start()
	j.logger.Info("history retention scheduled", "schedule", j.schedule)
}

// Stop halts the schedule and waits for a running prune to finish.
func (j *RetentionJob) Stop() {
	<-j.cron.Stop().Done()
}

func (j *RetentionJob) run() {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("history retention panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := j.svc.PruneExpired(ctx)
	if err != nil {
		j.logger.Error("history retention failed", "error", err)
		return
	}
	if removed > 0 {
		j.logger.Info("history pruned", "removed", removed)
	}
}

// PruneExpired removes history older than Settings.HistoryRetentionDays.
// A retention of zero keeps everything.
func (s *Service) PruneExpired(ctx context.Context) (int, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return 0, err
	}
	if settings.HistoryRetentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().AddDate(0, 0, -settings.HistoryRetentionDays)
	return s.PruneHistory(ctx, cutoff)
}

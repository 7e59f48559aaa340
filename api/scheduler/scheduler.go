package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/storage"
)

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron        *cron.Cron
	RDB         databases.ReportDatabase
	Storage     storage.FileStorage
	GracePeriod time.Duration
	now         func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(rDB databases.ReportDatabase, fs storage.FileStorage, gracePeriod time.Duration) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		RDB:         rDB,
		Storage:     fs,
		GracePeriod: gracePeriod,
		now:         time.Now,
	}
}

// Start registers the orphaned upload sweep on spec and starts the cron loop
func (s *Scheduler) Start(spec string) error {
	if _, ok := s.Storage.(storage.Lister); !ok {
		zap.S().Info("storage backend cannot list files, orphaned upload sweep disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, s.sweepOrphanedUploads)
	if err != nil {
		zap.S().Errorw("failed to register orphaned upload job", "spec", spec, "error", err)
		return err
	}

	s.cron.Start()
	zap.S().Infow("scheduler started", "orphanSweep", spec)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

func (s *Scheduler) sweepOrphanedUploads() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.SweepOrphanedUploads(ctx); err != nil {
		zap.S().Errorw("orphaned upload sweep failed", "error", err)
	}
}

// SweepOrphanedUploads deletes stored files that no report references. Files younger
// than the grace period are kept, a submission may still be about to reference them.
func (s *Scheduler) SweepOrphanedUploads(ctx context.Context) (int, error) {
	lister, ok := s.Storage.(storage.Lister)
	if !ok {
		return 0, nil
	}
	files, err := lister.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	reports, err := s.RDB.Find(ctx,
		bson.M{"imageFilename": bson.M{"$exists": true, "$ne": ""}},
		options.Find().SetProjection(bson.M{"imageFilename": 1}),
	)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		referenced[r.ImageFilename] = struct{}{}
	}

	cutoff := s.now().Add(-s.GracePeriod)
	removed := 0
	for _, f := range files {
		if _, ok := referenced[f.Name]; ok || f.ModTime.After(cutoff) {
			continue
		}
		if err := s.Storage.Delete(ctx, f.Name); err != nil {
			zap.S().Warnw("failed to delete orphaned upload", "filename", f.Name, "error", err)
			continue
		}
		removed++
	}
	zap.S().Infow("orphaned upload sweep finished", "files", len(files), "removed", removed)
	return removed, nil
}

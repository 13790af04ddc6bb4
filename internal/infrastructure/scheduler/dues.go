package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DuesSeeder fills missing contribution rows for a year.
type DuesSeeder interface {
	SeedMissing(ctx context.Context, year int) (int64, error)
}

// Scheduler runs the yearly dues seeding on a standard 5-field cron spec.
type Scheduler struct {
	cron    *cron.Cron
	seeder  DuesSeeder
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// New registers the dues job under spec.
func New(spec string, seeder DuesSeeder, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:    cron.New(),
		seeder:  seeder,
		logger:  logger.Named("scheduler"),
		timeout: 2 * time.Minute,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid dues schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce seeds the current year's missing rows.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	year := s.now().Year()
	created, err := s.seeder.SeedMissing(ctx, year)
	if err != nil {
		s.logger.Error("dues seeding failed", zap.Int("year", year), zap.Error(err))
		return err
	}
	s.logger.Info("dues seeded", zap.Int("year", year), zap.Int64("created", created))
	return nil
}

// tick is the cron entry point; RunOnce has already logged any failure and
// the next run retries.
func (s *Scheduler) tick() {
	if err := s.RunOnce(context.Background()); err != nil {
		return
	}
}

// Start launches the cron loop and stops it when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
}

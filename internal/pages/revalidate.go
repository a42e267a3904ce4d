package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"sklinet.org/web/internal/observability"
)

// Revalidator periodically drops cached CMS content and regenerates the
// static page set.
type Revalidator struct {
	scheduler gocron.Scheduler
	generator *Generator
	purge     func()
	logger    *zap.Logger
}

// NewRevalidator schedules a regeneration every interval. purge may be nil.
func NewRevalidator(g *Generator, interval time.Duration, purge func(), logger *zap.Logger) (*Revalidator, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("pages: revalidate interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("pages: create scheduler: %w", err)
	}
	rv := &Revalidator{scheduler: s, generator: g, purge: purge, logger: logger}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(rv.Run, context.Background()),
		gocron.WithName("revalidate-static-pages"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("pages: schedule revalidation: %w", err)
	}
	return rv, nil
}

// Start begins the schedule.
func (rv *Revalidator) Start() {
	rv.logger.Info("revalidation scheduled")
	rv.scheduler.Start()
}

// Stop waits for a running regeneration and stops the schedule.
func (rv *Revalidator) Stop() error {
	return rv.scheduler.Shutdown()
}

// Run performs one revalidation. A failed run keeps the previous store.
func (rv *Revalidator) Run(ctx context.Context) {
	ctx = observability.WithLogger(ctx, rv.logger)
	if rv.purge != nil {
		rv.purge()
	}
	n, err := rv.generator.Prerender(ctx)
	if err != nil {
		rv.logger.Error("revalidation failed", zap.Error(err))
		return
	}
	rv.logger.Debug("revalidation finished", zap.Int("pages", n))
}

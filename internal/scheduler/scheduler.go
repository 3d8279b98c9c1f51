package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/logger"
)

// Jobs is what the scheduler runs on a timer.
type Jobs interface {
	Sweep(ctx context.Context, now time.Time) (care.SweepSummary, error)
	Monitor(ctx context.Context, now time.Time) (care.MonitorSummary, error)
	Now() time.Time
}

type Config struct {
	ResetSpec   string
	MonitorSpec string
	Location    *time.Location
	// JobTimeout bounds one run of either job.
	JobTimeout time.Duration
}

type Scheduler struct {
	jobs     Jobs
	locker   Locker
	log      *logger.Logger
	cron     *cron.Cron
	timeout  time.Duration
	notifyCh chan struct{}
}

func New(jobs Jobs, locker Locker, log *logger.Logger, cfg Config) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}

	s := &Scheduler{
		jobs:     jobs,
		locker:   locker,
		log:      log.With("service", "Scheduler"),
		cron:     cron.New(cron.WithLocation(cfg.Location)),
		timeout:  cfg.JobTimeout,
		notifyCh: make(chan struct{}, 1),
	}

	if _, err := s.cron.AddFunc(cfg.ResetSpec, func() { s.runSweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reset schedule %q: %w", cfg.ResetSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.MonitorSpec, func() { s.runMonitor(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid monitor schedule %q: %w", cfg.MonitorSpec, err)
	}
	return s, nil
}

// Notify triggers an immediate run of both jobs. Non-blocking if a run is
// already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start runs the cron jobs until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
	s.cron.Start()

	// Catch up on anything left over from downtime.
	s.runSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			<-s.cron.Stop().Done()
			s.log.Info("scheduler stopped")
			return
		case <-s.notifyCh:
			s.log.Info("scheduler triggered by notification")
			s.runSweep(ctx)
			s.runMonitor(ctx)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	s.locked(ctx, "caremind:lock:sweep", func(ctx context.Context) error {
		summary, err := s.jobs.Sweep(ctx, s.jobs.Now())
		if err != nil {
			s.log.Error("reset sweep failed", "error", err)
			return err
		}
		s.log.Debug("reset sweep finished", "medications", summary.MedicationsReset, "routines", summary.RoutinesReset)
		return nil
	})
}

func (s *Scheduler) runMonitor(ctx context.Context) {
	s.locked(ctx, "caremind:lock:monitor", func(ctx context.Context) error {
		summary, err := s.jobs.Monitor(ctx, s.jobs.Now())
		if err != nil {
			s.log.Error("missed-item monitor failed", "error", err)
			return err
		}
		s.log.Debug("missed-item monitor finished", "missed", summary.Missed, "sent", summary.Notifications)
		return nil
	})
}

func (s *Scheduler) locked(ctx context.Context, key string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := otel.Tracer("caremind/scheduler").Start(ctx, key)
	defer span.End()

	release, ok, err := s.locker.TryLock(ctx, key, s.timeout)
	if err != nil {
		s.log.Warn("failed to acquire job lock", "key", key, "error", err)
		return
	}
	if !ok {
		s.log.Debug("job already running elsewhere", "key", key)
		return
	}
	defer release()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cvcraft/internal/logger"
	"cvcraft/internal/metrics"

	"github.com/robfig/cron/v3"
)

const (
	ExpireSubscriptions = "expire_subscriptions"
	EmailQueueGauge     = "email_queue_gauge"
)

// Expirer ends subscriptions whose paid period is over.
type Expirer interface {
	ExpireLapsed(ctx context.Context, now time.Time) (int, error)
}

type QueueMeter interface {
	QueueLength(ctx context.Context) int64
}

type Config struct {
	ExpireSchedule string
	GaugeSchedule  string
	JobTimeout     time.Duration
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cfg     Config
	expirer Expirer
	queue   QueueMeter
	now     func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	running bool
}

func NewScheduler(cfg Config, expirer Expirer, queue QueueMeter) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	return &Scheduler{
		cfg:     cfg,
		expirer: expirer,
		queue:   queue,
		now:     time.Now,
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers every job with a schedule and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.cron = cron.New()
	s.entries = make(map[string]cron.EntryID)

	if s.expirer != nil && s.cfg.ExpireSchedule != "" {
		if err := s.add(ExpireSubscriptions, s.cfg.ExpireSchedule, s.ExpireSubscriptions); err != nil {
			return err
		}
	}
	if s.queue != nil && s.cfg.GaugeSchedule != "" {
		if err := s.add(EmailQueueGauge, s.cfg.GaugeSchedule, s.RecordQueueLength); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.running = true

	logger.WithFields(map[string]interface{}{
		"jobs": len(s.entries),
	}).Info("Job scheduler started")
	return nil
}

func (s *Scheduler) add(name, spec string, job func(ctx context.Context) error) error {
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			logger.WithError(err).Error("Scheduled job " + name + " failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	s.entries[name] = id
	return nil
}

// Stop halts scheduling and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("Job scheduler stop timed out")
	}
	s.running = false
	s.entries = make(map[string]cron.EntryID)

	logger.Info("Job scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Jobs lists the registered job names with their next run time.
func (s *Scheduler) Jobs() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		out[name] = s.cron.Entry(id).Next
	}
	return out
}

func (s *Scheduler) ExpireSubscriptions(ctx context.Context) error {
	n, err := s.expirer.ExpireLapsed(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("Expired lapsed subscriptions", "count", n)
	}
	return nil
}

func (s *Scheduler) RecordQueueLength(ctx context.Context) error {
	metrics.EmailQueueLength.Set(float64(s.queue.QueueLength(ctx)))
	return nil
}

// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"billing-service/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner executes a named job once.
type Runner interface {
	Run(ctx context.Context, name string) (interface{}, error)
}

// Job binds a job name to its cron expression.
type Job struct {
	Name string
	Spec string
}

type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New registers jobs on a UTC cron. A run that is still going when its next
// tick fires makes that tick a no-op.
func New(runner Runner, jobs []Job, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) (*Scheduler, error) {
	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}

	for _, job := range jobs {
		name := job.Name
		if _, err := s.cron.AddFunc(job.Spec, func() {
			_ = s.Trigger(context.Background(), name)
		}); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for job %s: %w", job.Spec, name, err)
		}
		logger.Info("job scheduled", zap.String("job", name), zap.String("spec", job.Spec))
	}
	return s, nil
}

// Trigger runs one job now under the configured timeout
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	_, err := s.RunOnce(ctx, name)
	return err
}

// RunOnce is Trigger that also hands back the job's result.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (interface{}, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info("job started", zap.String("job", name))
	result, err := s.runner.Run(ctx, name)
	elapsed := time.Since(start)
	s.metrics.RecordJob(name, elapsed, err)

	if err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, err
	}
	s.logger.Info("job finished", zap.String("job", name), zap.Duration("elapsed", elapsed))
	return result, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts new runs and waits for running jobs or ctx, whichever ends first
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries lists the next run time of each job.
func (s *Scheduler) Entries() []time.Time {
	entries := s.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Next)
	}
	return next
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

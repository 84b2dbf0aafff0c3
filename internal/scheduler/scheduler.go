package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type scheduledJob struct {
	job      Job
	interval time.Duration
}

// Scheduler drives registered jobs on their own tickers. Each job also runs
// once immediately on Start, so a restart never waits a full interval to
// catch up on matured holds or lagging periods.
type Scheduler struct {
	jobs   []scheduledJob
	wg     sync.WaitGroup
	cancel context.CancelFunc
	log    zerolog.Logger
}

// New creates an empty Scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Register adds a job with its run interval. Must be called before Start.
func (s *Scheduler) Register(job Job, interval time.Duration) {
	s.jobs = append(s.jobs, scheduledJob{job: job, interval: interval})
}

// Start launches one goroutine per registered job.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, sj := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, sj)
	}
	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop cancels all job loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, sj scheduledJob) {
	defer s.wg.Done()

	s.runOnce(ctx, sj.job)

	ticker := time.NewTicker(sj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, sj.job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error().Err(err).
			Str("job", job.Name()).
			Msg("scheduled job failed")
		return
	}
	s.log.Debug().
		Str("job", job.Name()).
		Dur("took", time.Since(start)).
		Msg("scheduled job finished")
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"

	"github.com/go-co-op/gocron/v2"
)

// EventEnsurer creates the upcoming Saturday nights that do not exist yet.
type EventEnsurer interface {
	EnsureUpcomingSaturdays(ctx context.Context) ([]models.Event, error)
}

// Scheduler runs the calendar maintenance jobs.
type Scheduler struct {
	inner  gocron.Scheduler
	job    gocron.Job
	logger *logger.Logger
}

const jobTimeout = time.Minute

// New registers the upcoming-events job on a cron expression evaluated in
// loc. The job also runs once at start so a fresh database has a calendar.
func New(ctx context.Context, ensurer EventEnsurer, cronExpr string, loc *time.Location, log *logger.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	inner, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	task := func() {
		runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		events, err := ensurer.EnsureUpcomingSaturdays(runCtx)
		if err != nil {
			log.Error("SCHEDULER", fmt.Sprintf("ensuring upcoming events: %v", err))
			return
		}
		log.Info("SCHEDULER", fmt.Sprintf("%d upcoming events ensured", len(events)))
	}

	job, err := inner.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(task),
		gocron.WithName("ensure-upcoming-events"),
		gocron.WithSingletonMode(gocron.LimitModeWait),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = inner.Shutdown()
		return nil, fmt.Errorf("scheduling %q: %w", cronExpr, err)
	}
	return &Scheduler{inner: inner, job: job, logger: log}, nil
}

func (s *Scheduler) Start() {
	s.inner.Start()
	next, err := s.job.NextRun()
	if err == nil {
		s.logger.Info("SCHEDULER", fmt.Sprintf("%s scheduled, next run %s", s.job.Name(), next.Format(time.RFC3339)))
	}
}

// RunNow triggers the job outside its schedule.
func (s *Scheduler) RunNow() error {
	return s.job.RunNow()
}

func (s *Scheduler) Shutdown() error {
	return s.inner.Shutdown()
}

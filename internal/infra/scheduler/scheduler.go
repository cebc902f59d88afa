package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/app"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/alert"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Specs holds one cron expression per batch job.
type Specs struct {
	Registrations string // e.g. "0 8,14,20 * * *"
	Verifications string
	Arrivals      string
	Checkout      string
}

// BatchScheduler triggers the batch checks on their calendar specs. Each run
// is independent; correctness under overlap rests on the dedup store, not on
// run identity.
type BatchScheduler struct {
	cronEngine *cron.Cron
	compliance *app.ComplianceService
	checkout   *app.CheckoutService
	alerts     alert.Notifier
	log        *logrus.Logger
	specs      Specs
}

// NewBatchScheduler creates the scheduler; Start registers and starts the jobs.
func NewBatchScheduler(
	compliance *app.ComplianceService,
	checkout *app.CheckoutService,
	alerts alert.Notifier,
	log *logrus.Logger,
	specs Specs,
) *BatchScheduler {
	return &BatchScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		compliance: compliance,
		checkout:   checkout,
		alerts:     alerts,
		log:        log,
		specs:      specs,
	}
}

// Start registers the cron jobs and starts the engine. Invalid specs are a
// startup configuration failure.
func (s *BatchScheduler) Start() error {
	s.log.Info("Starting batch scheduler...")

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) (app.BatchResult, error)
	}{
		{"registrations", s.specs.Registrations, s.compliance.CheckRegistrations},
		{"verifications", s.specs.Verifications, s.compliance.CheckVerifications},
		{"arrivals", s.specs.Arrivals, s.compliance.CheckArrivals},
		{"checkout", s.specs.Checkout, s.checkout.Checkout},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cronEngine.AddFunc(job.spec, func() {
			s.log.Infof("Cron job triggered: %s check", job.name)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			result, err := job.run(ctx)
			if err != nil {
				s.log.Errorf("Scheduled %s check failed: %v", job.name, err)
				s.alerts.Notify(ctx, fmt.Sprintf("Scheduled %s check failed: %v", job.name, err))
				return
			}
			s.log.Infof("Scheduled %s check finished, %d reservations processed", job.name, len(result))
		})
		if err != nil {
			return fmt.Errorf("could not add %s cron job (spec %q): %w", job.name, job.spec, err)
		}
	}

	s.cronEngine.Start()
	s.log.Info("Batch scheduler started with jobs.")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *BatchScheduler) Stop() {
	s.log.Info("Stopping batch scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.log.Info("Batch scheduler gracefully stopped.")
}

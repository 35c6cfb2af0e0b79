// Package scheduler runs the recurring background jobs of the application,
// currently the daily expiry alert sweep. It wraps robfig/cron so the rest of
// the code only deals with a Start/Stop pair.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/tmercier/go-bagcheck-backend/internal/services"
)

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	alerts *services.AlertService
}

// New builds a scheduler with the daily alert sweep registered at the given
// local hour. Jobs run in the server's local timezone.
func New(alerts *services.AlertService, alertHour int) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.Local)),
		alerts: alerts,
	}
	spec := fmt.Sprintf("0 %d * * *", alertHour)
	if _, err := s.cron.AddFunc(spec, s.runSweep); err != nil {
		return nil, fmt.Errorf("scheduler: register alert sweep: %w", err)
	}
	return s, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop halts the runner and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := s.alerts.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("daily alert sweep failed")
		return
	}
	log.Info().
		Int("examined", res.Examined).
		Int("sent", res.Sent).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("daily alert sweep completed")
}

package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// OrphanPruner removes subscriptions whose newsletter no longer exists.
type OrphanPruner interface {
	DeleteOrphaned(ctx context.Context) (int64, error)
}

// Scheduler runs the nightly cleanup pass.
type Scheduler struct {
	cron   *cron.Cron
	pruner OrphanPruner
	log    zerolog.Logger
}

func NewScheduler(pruner OrphanPruner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		pruner: pruner,
		log:    log,
	}
}

// Start registers the nightly job (12:00 AM) and begins the schedule.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 0 0 * * *", s.runNightly)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Msg("maintenance scheduler started")
	return nil
}

// Stop waits for a running job to finish before returning.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runNightly() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pruned, err := s.pruner.DeleteOrphaned(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("nightly subscription prune failed")
		return
	}
	s.log.Info().Int64("pruned", pruned).Msg("nightly subscription prune completed")
}

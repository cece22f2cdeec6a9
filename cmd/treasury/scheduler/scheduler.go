package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/mtaadao/treasury/cmd/treasury/service"
	"github.com/mtaadao/treasury/common/config"
	"github.com/mtaadao/treasury/common/logger"
	"github.com/mtaadao/treasury/common/redis"
)

const tickTimeout = time.Minute

// Scheduler drives the periodic work: rotation ticks for due funds and the
// expiry sweep for abandoned proposals.
type Scheduler struct {
	cronEngine *cron.Cron
	rotation   *service.RotationService
	multisig   *service.MultisigService
	locks      *redis.Client
	log        *logger.Logger
	cfg        *config.Config
	owner      string
}

// New creates a scheduler with its jobs not yet started.
func New(
	rotation *service.RotationService,
	multisig *service.MultisigService,
	locks *redis.Client,
	log *logger.Logger,
	cfg *config.Config,
) *Scheduler {
	return &Scheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		rotation:   rotation,
		multisig:   multisig,
		locks:      locks,
		log:        log,
		cfg:        cfg,
		owner:      uuid.NewString(),
	}
}

// Start registers the cron jobs and starts the engine.
func (s *Scheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.cfg.Rotation.PollCron, s.pollRotations); err != nil {
		return err
	}
	if _, err := s.cronEngine.AddFunc(s.cfg.Multisig.SweepCron, s.sweepExpired); err != nil {
		return err
	}

	s.cronEngine.Start()
	s.log.Info("scheduler started",
		"rotation_cron", s.cfg.Rotation.PollCron,
		"sweep_cron", s.cfg.Multisig.SweepCron,
	)
	return nil
}

// Stop stops the cron engine and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// pollRotations ticks every due rotation fund. Ticks for the same fund
// are serialized with a redis lock so overlapping poll runs (or multiple
// instances) never process a fund concurrently; the fund row lock inside
// the transaction remains the authoritative guard.
func (s *Scheduler) pollRotations() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	err := s.rotation.ProcessAllDue(ctx, func(fundID uuid.UUID) {
		s.tickFund(ctx, fundID)
	})
	if err != nil {
		s.log.Error("rotation poll failed", "error", err)
	}
}

func (s *Scheduler) tickFund(ctx context.Context, fundID uuid.UUID) {
	lockKey := "treasury:rotation:lock:" + fundID.String()

	acquired, err := s.locks.AcquireLock(ctx, lockKey, s.owner, s.cfg.Rotation.LockTTL)
	if err != nil {
		s.log.Error("rotation lock acquire failed", "fund_id", fundID, "error", err)
		return
	}
	if !acquired {
		s.log.Debug("rotation tick already in progress", "fund_id", fundID)
		return
	}
	defer func() {
		if err := s.locks.ReleaseLock(ctx, lockKey, s.owner); err != nil {
			s.log.Warn("rotation lock release failed", "fund_id", fundID, "error", err)
		}
	}()

	tickCtx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	result, err := s.rotation.ProcessDue(tickCtx, fundID)
	if err != nil {
		s.log.Error("rotation tick failed", "fund_id", fundID, "error", err)
		return
	}

	if result.Status == service.RotationSkipped {
		s.log.Debug("rotation tick skipped", "fund_id", fundID, "reason", result.Reason)
	}
}

// sweepExpired expires overdue pending proposals.
func (s *Scheduler) sweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if _, err := s.multisig.SweepExpired(ctx); err != nil {
		s.log.Error("proposal expiry sweep failed", "error", err)
	}
}

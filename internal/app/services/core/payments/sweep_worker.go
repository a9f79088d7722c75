package payments

import (
	"context"
	"time"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/contracts"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// sweepLeaderLockKey makes sure only one instance sweeps per tick.
const sweepLeaderLockKey = "payments:expiry-sweep:leader"

const defaultSweepCronSpec = "@every 15m"

// SweepWorker runs ExpirePendingPayments on a cron schedule.
type SweepWorker struct {
	log     *zap.Logger
	cfg     *config.InternalConfig
	locker  contracts.LockerService
	usecase contracts.PaymentUsecase
	cron    *cron.Cron
	runCtx  context.Context
	cancel  context.CancelFunc
}

func NewSweepWorker(log *zap.Logger, cfg *config.InternalConfig, lockerSvc contracts.LockerService, usecase contracts.PaymentUsecase) *SweepWorker {
	return &SweepWorker{log: log, cfg: cfg, locker: lockerSvc, usecase: usecase}
}

func (w *SweepWorker) Start(ctx context.Context) {
	w.runCtx, w.cancel = context.WithCancel(ctx)
	c := cron.New()
	spec := w.cfg.Cron.SweepCronSpec
	if spec == "" {
		spec = defaultSweepCronSpec
	}
	if _, err := c.AddFunc(spec, func() { w.runOnce(w.runCtx) }); err != nil {
		w.log.Warn("payments.sweepWorker: invalid cron spec, falling back to default",
			zap.String("spec", spec),
			zap.Error(err),
		)
		c = cron.New()
		_, _ = c.AddFunc(defaultSweepCronSpec, func() { w.runOnce(w.runCtx) })
	}
	c.Start()
	w.cron = c
	w.log.Info("payments.sweepWorker started", zap.String("spec", spec))
}

// Stop waits for an in-flight sweep to finish.
func (w *SweepWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		stopCtx := w.cron.Stop()
		<-stopCtx.Done()
	}
}

func (w *SweepWorker) runOnce(ctx context.Context) {
	ctx = utils.ContextWithRequestID(ctx, utils.GenerateRequestID())
	requestID := utils.GetRequestID(ctx)

	ttl := time.Duration(w.cfg.Cron.SweepLockTTLInSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	acquired, token, err := w.locker.TryLock(ctx, sweepLeaderLockKey, ttl)
	if err != nil {
		w.log.Warn("payments.sweepWorker: leader lock attempt failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return
	}
	if !acquired {
		w.log.Info("payments.sweepWorker: leader lock not acquired; another instance is sweeping",
			zap.String(constvars.LoggingRequestIDKey, requestID),
		)
		return
	}
	defer func() {
		if err := w.locker.Unlock(context.WithoutCancel(ctx), sweepLeaderLockKey, token); err != nil {
			w.log.Warn("payments.sweepWorker: unlock failed", zap.Error(err))
		}
	}()

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()
	go func() {
		tick := time.NewTicker(ttl / 2)
		defer tick.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-tick.C:
				if err := w.locker.Refresh(refreshCtx, sweepLeaderLockKey, token, ttl); err != nil {
					w.log.Warn("payments.sweepWorker: failed to refresh leader lock TTL", zap.Error(err))
				}
			}
		}
	}()

	_ = utils.LogOperation(w.log, "payments.expiry_sweep", requestID, func() error {
		_, err := w.usecase.ExpirePendingPayments(ctx)
		return err
	})
}

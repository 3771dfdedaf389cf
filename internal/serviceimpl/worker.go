package serviceimpl

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// worker dispatches pending payouts to processing. The host's payment
// integration picks them up from there and completes or fails them.
type worker struct {
	DB      *gorm.DB
	log     *zap.Logger
	payouts service.PayoutService
	sched   gocron.Scheduler
}

var _ service.Worker = &worker{}

func NewWorkerService(db *gorm.DB, log *zap.Logger, payouts service.PayoutService) *worker {
	return &worker{DB: db, log: log.Named("worker"), payouts: payouts}
}

// ProcessPendingPayouts flips pending payouts to processing in id order. A
// payout whose amount no longer fits the available balance is failed with a
// reason instead of over-drawing; other errors are logged and the batch
// continues.
func (w *worker) ProcessPendingPayouts() error {
	var pending []models.Payout
	if err := w.DB.Where("status = ?", models.PayoutStatusPending).
		Order("id").Find(&pending).Error; err != nil {
		return fmt.Errorf("failed to fetch pending payouts: %w", err)
	}

	for _, payout := range pending {
		_, err := w.payouts.UpdatePayoutStatus(payout.ID, models.PayoutStatusProcessing)
		if err == nil {
			continue
		}
		if errors.Is(err, service.ErrInsufficientBalance) {
			if _, failErr := w.payouts.FailPayout(payout.ID, "insufficient confirmed balance at dispatch"); failErr != nil {
				w.log.Error("failed to mark over-drawn payout failed",
					zap.Uint("payoutID", payout.ID), zap.Error(failErr))
			}
			continue
		}
		w.log.Error("failed to dispatch payout", zap.Uint("payoutID", payout.ID), zap.Error(err))
	}
	return nil
}

func (w *worker) StartScheduler(interval time.Duration) error {
	if w.sched != nil {
		return fmt.Errorf("scheduler already running")
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := w.ProcessPendingPayouts(); err != nil {
				w.log.Error("payout dispatch run failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule payout dispatch: %w", err)
	}

	sched.Start()
	w.sched = sched
	return nil
}

func (w *worker) StopScheduler() error {
	if w.sched == nil {
		return nil
	}
	err := w.sched.Shutdown()
	w.sched = nil
	return err
}

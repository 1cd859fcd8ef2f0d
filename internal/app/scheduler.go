package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StaleSweeper отменяет бронирования, которые закончились, так и не дождавшись решения
type StaleSweeper interface {
	DiscardStale(ctx context.Context, now time.Time) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	sweeper  StaleSweeper
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(sweeper StaleSweeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		now:      time.Now,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("stale_sweep_interval", s.interval))

	s.wg.Add(1)
	go s.runStaleSweepTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) runStaleSweepTask(ctx context.Context) {
	defer s.wg.Done()

	// Первый запуск сразу при старте
	s.sweepStale(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepStale(ctx)
		case <-s.stopChan:
			s.logger.Info("Stale sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Stale sweep task cancelled")
			return
		}
	}
}

func (s *Scheduler) sweepStale(ctx context.Context) {
	discarded, err := s.sweeper.DiscardStale(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to discard stale bookings", zap.Error(err))
		return
	}

	s.logger.Debug("Stale sweep finished", zap.Int("discarded", discarded))
}

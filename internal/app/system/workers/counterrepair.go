// internal/app/system/workers/counterrepair.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/membership"
	"github.com/dalemusser/brewcircles/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Repairer is the part of membership.Manager the worker drives.
type Repairer interface {
	CircleIDs(ctx context.Context) ([]primitive.ObjectID, error)
	RepairCircle(ctx context.Context, circleID primitive.ObjectID) (membership.RepairResult, error)
}

// CounterRepair is a background worker that recomputes circle counters and
// restores an admin to circles left without one.
type CounterRepair struct {
	repairer    Repairer
	log         *zap.Logger
	interval    time.Duration
	parallelism int
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewCounterRepair creates the worker. parallelism bounds how many circles
// are repaired at once.
func NewCounterRepair(r Repairer, logger *zap.Logger, interval time.Duration, parallelism int) *CounterRepair {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &CounterRepair{
		repairer:    r,
		log:         logger,
		interval:    interval,
		parallelism: parallelism,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background repair loop.
func (w *CounterRepair) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("counter repair worker started",
		zap.Duration("interval", w.interval),
		zap.Int("parallelism", w.parallelism))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CounterRepair) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("counter repair worker stopped")
}

func (w *CounterRepair) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-w.stopCh
		cancel()
	}()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.log.Error("counter repair pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce repairs every circle and returns how many were changed. Failures
// on one circle are logged and do not stop the pass.
func (w *CounterRepair) RunOnce(ctx context.Context) (int, error) {
	listCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	ids, err := w.repairer.CircleIDs(listCtx)
	cancel()
	if err != nil {
		return 0, err
	}

	var (
		mu      sync.Mutex
		changed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallelism)
	for _, id := range ids {
		g.Go(func() error {
			cctx, cancel := timeouts.WithTimeout(gctx, timeouts.Long(), w.log, "repair circle")
			defer cancel()

			res, err := w.repairer.RepairCircle(cctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				w.log.Warn("circle repair failed", zap.String("circle_id", id.Hex()), zap.Error(err))
				return nil
			}
			if res.Changed() {
				mu.Lock()
				changed++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return changed, err
	}
	if changed > 0 {
		w.log.Info("counter repair pass complete",
			zap.Int("circles", len(ids)),
			zap.Int("repaired", changed))
	}
	return changed, nil
}

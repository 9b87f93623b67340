package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/metrics"
	"github.com/polkiloo/paycore/internal/usecase"
)

// SweepFacade exposes the subset of application functionality required by the sweeper.
type SweepFacade interface {
	StalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)
	ReconcilePayment(ctx context.Context, reference string) (*usecase.Confirmation, error)
	CancelStaleOrder(ctx context.Context, orderID int64) (bool, error)
}

// SweeperOptions tunes PendingSweeper.
type SweeperOptions struct {
	Interval       time.Duration
	ReconcileAfter time.Duration
	StaleAfter     time.Duration
	BatchSize      int
	Workers        int
}

// PendingSweeper periodically reconciles orders stuck awaiting payment and
// cancels the ones that stay unpaid past StaleAfter.
type PendingSweeper struct {
	facade  SweepFacade
	opts    SweeperOptions
	metrics *metrics.Collectors
	logger  *zap.Logger
	now     func() time.Time

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPendingSweeper constructs the sweeper worker pool.
func NewPendingSweeper(facade SweepFacade, opts SweeperOptions, collectors *metrics.Collectors, logger *zap.Logger) *PendingSweeper {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 24 * time.Hour
	}
	if opts.ReconcileAfter <= 0 || opts.ReconcileAfter > opts.StaleAfter {
		opts.ReconcileAfter = opts.StaleAfter
	}
	if collectors == nil {
		collectors = metrics.NewNop()
	}
	return &PendingSweeper{
		facade:  facade,
		opts:    opts,
		metrics: collectors,
		logger:  logger,
		now:     time.Now,
	}
}

// Start launches background processing.
func (p *PendingSweeper) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.jobs = make(chan model.Order, p.opts.BatchSize)

	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop cancels in-flight work and waits for all workers to finish.
func (p *PendingSweeper) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *PendingSweeper) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *PendingSweeper) fetchAndDispatch(ctx context.Context) {
	cutoff := p.now().Add(-p.opts.ReconcileAfter)
	orders, err := p.facade.StalePendingOrders(ctx, cutoff, p.opts.BatchSize)
	if err != nil {
		p.logger.Error("fetch pending orders failed", zap.Error(err))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *PendingSweeper) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleOrder(ctx, order)
		}
	}
}

// handleOrder asks the gateway first; only an order that is still unpaid and
// older than StaleAfter is cancelled. A failed gateway lookup never cancels.
func (p *PendingSweeper) handleOrder(ctx context.Context, order model.Order) {
	log := p.logger.With(zap.Int64("order_id", order.ID), zap.String("order_number", order.Number))

	if ref := order.Reference(); ref != "" {
		res, err := p.facade.ReconcilePayment(ctx, ref)
		if err != nil {
			p.metrics.SweeperActions.WithLabelValues("reconcile_failed").Inc()
			log.Warn("reconcile pending order failed", zap.String("reference", ref), zap.Error(err))
			return
		}
		if !res.Order.AwaitingPayment() {
			p.metrics.SweeperActions.WithLabelValues("reconciled").Inc()
			log.Info("pending order reconciled", zap.String("order_status", string(res.Order.Status)))
			return
		}
	}

	if p.now().Sub(order.CreatedAt) < p.opts.StaleAfter {
		p.metrics.SweeperActions.WithLabelValues("still_pending").Inc()
		return
	}

	cancelled, err := p.facade.CancelStaleOrder(ctx, order.ID)
	if err != nil {
		p.metrics.SweeperActions.WithLabelValues("cancel_failed").Inc()
		log.Error("cancel stale order failed", zap.Error(err))
		return
	}
	if !cancelled {
		p.metrics.SweeperActions.WithLabelValues("skipped").Inc()
		return
	}
	p.metrics.SweeperActions.WithLabelValues("cancelled").Inc()
	log.Info("stale unpaid order cancelled", zap.Duration("age", p.now().Sub(order.CreatedAt)))
}

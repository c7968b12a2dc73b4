package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/pagebound-server/internal/config"
	"github.com/listenupapp/pagebound-server/internal/logger"
	"github.com/listenupapp/pagebound-server/internal/outbox"
	"github.com/listenupapp/pagebound-server/internal/ratelimit"
	"github.com/listenupapp/pagebound-server/internal/service"
)

// OutboxHandle wraps the activity outbox with shutdown capability.
type OutboxHandle struct {
	*outbox.Outbox
}

// Shutdown implements do.Shutdownable.
func (h *OutboxHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Outbox.Shutdown(ctx)
}

// ProvideOutbox opens the activity outbox and starts its workers.
func ProvideOutbox(i do.Injector) (*OutboxHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	box, err := outbox.Open(outbox.Options{
		Path:    cfg.Data.OutboxPath(),
		Workers: cfg.Engine.ActivityWorkers,
		Logger:  log.Logger,
	}, outbox.StoreHandler(storeHandle.Store, sseHandle.Manager))
	if err != nil {
		return nil, err
	}

	box.Start(context.Background())

	if pending, err := box.Pending(); err == nil && pending > 0 {
		log.Info("Resuming undelivered activities", "pending", pending)
	}

	return &OutboxHandle{Outbox: box}, nil
}

// ReconcileJob runs the periodic full recompute.
type ReconcileJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (j *ReconcileJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideReconcileJob starts the reconciler on the configured interval. A
// zero interval leaves the job idle.
func ProvideReconcileJob(i do.Injector) (*ReconcileJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	reconciler := do.MustInvoke[*service.Reconciler](i)

	ctx, cancel := context.WithCancel(context.Background())
	job := &ReconcileJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)
		reconciler.Run(ctx, cfg.Engine.ReconcileInterval)
	}()

	if cfg.Engine.ReconcileInterval > 0 {
		log.Info("Reconcile job started", "interval", cfg.Engine.ReconcileInterval)
	} else {
		log.Info("Reconcile job disabled by configuration")
	}

	return job, nil
}

// WriteLimiterHandle wraps the per-reader write limiter.
type WriteLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *WriteLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideWriteLimiter provides the rate limiter applied to write requests.
func ProvideWriteLimiter(i do.Injector) (*WriteLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &WriteLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Engine.RateLimitRPS, cfg.Engine.RateLimitBurst),
	}, nil
}

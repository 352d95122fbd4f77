// Package worker runs the periodic ready-to-pay digest: for each
// configured fiscal host it resolves the currently payable expenses and
// publishes a summary message for downstream payment tooling.
package worker

import (
	"context"
	"time"

	"paydesk/internal/amqp"
	"paydesk/internal/core"
	"paydesk/internal/filter"
	"paydesk/internal/log"
	"paydesk/internal/services"
)

// DigestPublisher abstracts the message broker so the worker can be
// tested with a recording fake.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, digest *amqp.ReadyToPayDigest) error
}

type DigestWorker struct {
	service   *services.ExpenseQueryService
	publisher DigestPublisher
	hosts     []string
	interval  time.Duration
	logger    *log.Logger
}

func NewDigestWorker(service *services.ExpenseQueryService, publisher DigestPublisher, hosts []string, interval time.Duration, logger *log.Logger) *DigestWorker {
	return &DigestWorker{
		service:   service,
		publisher: publisher,
		hosts:     hosts,
		interval:  interval,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// Run executes one digest pass immediately, then one per interval until
// ctx is cancelled. Per-host failures are logged and skipped so one bad
// host never starves the others.
func (w *DigestWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Digest worker started",
		"hosts", len(w.hosts), "interval", w.interval.String())

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Digest worker stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *DigestWorker) runOnce(ctx context.Context) {
	for _, host := range w.hosts {
		if err := w.digestHost(ctx, host); err != nil {
			w.logger.ErrorContext(ctx, "Digest pass failed",
				log.FieldHostSlug, host, log.FieldError, err)
		}
	}
}

func (w *DigestWorker) digestHost(ctx context.Context, host string) error {
	var (
		ids    []int64
		total  int64
		offset int
	)
	for {
		page, err := w.service.Resolve(ctx, filter.Args{
			Host:   core.AccountRef(host),
			Status: core.StatusReadyToPay,
			Limit:  filter.MaxLimit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		for _, e := range page.Nodes {
			ids = append(ids, e.ID)
			total += e.Amount.Cents
		}
		offset += page.Limit
		if len(page.Nodes) == 0 || offset >= page.TotalCount {
			break
		}
	}

	if len(ids) == 0 {
		w.logger.DebugContext(ctx, "No payable expenses for host", log.FieldHostSlug, host)
		return nil
	}

	digest := amqp.NewReadyToPayDigest(host, ids, total)
	if err := w.publisher.PublishDigest(ctx, digest); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Published host digest",
		log.FieldHostSlug, host,
		"expenses", len(ids),
		log.FieldAmountCents, total)
	return nil
}

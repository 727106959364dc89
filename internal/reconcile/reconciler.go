// Package reconcile repairs products whose stored rating aggregate or AI
// review fell behind their user reviews, for instance after a submission
// failed between the review insert and the AI review upsert.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
)

// HealthLister reports the stored and actual aggregates of every product.
type HealthLister interface {
	ListHealth(ctx context.Context) ([]domain.ProductHealth, error)
}

// Regenerator rebuilds one product's average and AI review.
type Regenerator interface {
	Regenerate(ctx context.Context, productID string) (*domain.Review, error)
}

type Config struct {
	// Schedule is a cron spec or descriptor such as "@every 30m". Empty
	// disables periodic runs.
	Schedule     string
	RunOnStartup bool
}

// Report summarises one pass.
type Report struct {
	Checked  int
	Repaired int
	Failed   int
}

// Reconciler scans product health and regenerates stale products, either
// on demand or on a cron schedule.
type Reconciler struct {
	products HealthLister
	regen    Regenerator
	cfg      Config
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	startup sync.WaitGroup

	repaired *prometheus.CounterVec
}

// New creates a reconciler. reg may be nil.
func New(products HealthLister, regen Regenerator, cfg Config, reg prometheus.Registerer, logger *slog.Logger) *Reconciler {
	r := &Reconciler{
		products: products,
		regen:    regen,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "reconciler")),
		repaired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_reconcile_products_total",
			Help: "Products the reconciler attempted to repair, by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(r.repaired)
	}
	return r
}

// Run performs one pass. A failure to regenerate one product is logged and
// does not stop the pass; only a failed health scan is returned. Concurrent
// calls are serialised.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	health, err := r.products.ListHealth(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list product health: %w", err)
	}

	report := Report{Checked: len(health)}
	for _, h := range health {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if !h.NeedsRepair() {
			continue
		}

		if _, err := r.regen.Regenerate(ctx, h.ProductID); err != nil {
			report.Failed++
			r.repaired.WithLabelValues("failed").Inc()
			r.logger.ErrorContext(ctx, "failed to repair product",
				slog.String("product_id", h.ProductID),
				slog.Float64("stored_average", h.StoredAverage),
				slog.Float64("actual_average", h.ActualAverage),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.Repaired++
		r.repaired.WithLabelValues("repaired").Inc()
		r.logger.InfoContext(ctx, "product repaired",
			slog.String("product_id", h.ProductID),
			slog.String("product_name", h.ProductName),
			slog.Float64("stored_average", h.StoredAverage),
			slog.Float64("actual_average", h.ActualAverage),
			slog.Bool("had_ai_review", h.HasAIReview),
		)
	}

	r.logger.InfoContext(ctx, "reconcile pass finished",
		slog.Int("checked", report.Checked),
		slog.Int("repaired", report.Repaired),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// Start schedules periodic passes and, if configured, one immediate pass in
// the background. Passes run with ctx.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.cfg.Schedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := c.AddFunc(r.cfg.Schedule, func() { r.runLogged(ctx) }); err != nil {
			return fmt.Errorf("parse reconcile schedule %q: %w", r.cfg.Schedule, err)
		}
		c.Start()
		r.cron = c
		r.logger.Info("reconciler scheduled", slog.String("schedule", r.cfg.Schedule))
	}

	if r.cfg.RunOnStartup {
		r.startup.Add(1)
		go func() {
			defer r.startup.Done()
			r.runLogged(ctx)
		}()
	}
	return nil
}

// Stop halts the schedule and waits for running passes, including the
// startup pass, to finish.
func (r *Reconciler) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	r.startup.Wait()
}

func (r *Reconciler) runLogged(ctx context.Context) {
	if _, err := r.Run(ctx); err != nil {
		r.logger.ErrorContext(ctx, "reconcile pass failed", slog.String("error", err.Error()))
	}
}

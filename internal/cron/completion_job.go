package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/rafaelortiz/tradeyard-backend/internal/gateway"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/pkg/config"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
)

// CompletionSweepJob auto-completes orders that have sat in delivered past
// the grace period. It issues the same complete action a buyer would, as the
// system actor, so every completion goes through the gateway.
type CompletionSweepJob struct {
	gateway gateway.Service
	repo    orders.Repository
	cfg     config.CompletionConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewCompletionSweepJob builds the sweep job.
func NewCompletionSweepJob(gw gateway.Service, repo orders.Repository, cfg config.CompletionConfig, logg *logger.Logger) (*CompletionSweepJob, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 14 * 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &CompletionSweepJob{
		gateway: gw,
		repo:    repo,
		cfg:     cfg,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Name implements Job.
func (j *CompletionSweepJob) Name() string {
	return "completion_sweep"
}

// Run implements Job. Orders that cannot complete right now (busy, or an
// open return moved the payment on) are skipped and picked up on the next
// cycle.
func (j *CompletionSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.cfg.GracePeriod)
	var errs error

	for {
		rows, err := j.repo.ListDeliveredBefore(ctx, cutoff, j.cfg.BatchSize)
		if err != nil {
			return multierr.Append(errs, err)
		}
		if len(rows) == 0 {
			break
		}

		completed := 0
		for i := range rows {
			order := &rows[i]
			_, err := j.gateway.RequestOrderTransition(ctx, gateway.OrderTransitionInput{
				OrderID: order.ID,
				Action:  enums.OrderActionComplete,
				Actor:   gateway.Actor{Role: enums.ActorRoleSystem},
			})
			if err != nil {
				if isSkippable(err) {
					j.logg.Warn(j.logg.WithOrderID(ctx, order.ID.String()), "skipping auto-completion")
					continue
				}
				errs = multierr.Append(errs, fmt.Errorf("complete order %s: %w", order.ID, err))
				continue
			}
			completed++
		}

		j.logg.Info(j.logg.WithField(ctx, "completed", completed), "completion sweep batch done")
		if completed == 0 {
			// Everything left in this batch was skipped; stop instead of
			// refetching the same rows.
			break
		}
	}
	return errs
}

func isSkippable(err error) bool {
	return pkgerrors.HasCode(err, pkgerrors.CodeBusy) ||
		pkgerrors.HasCode(err, pkgerrors.CodeStaleState) ||
		pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition)
}

package estimate

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/events"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// Result is one recompute: the typed items the totals were derived from and the totals.
type Result struct {
	Trip   trip.Trip
	Items  []lineitem.LineItem
	Totals Totals
}

type Service struct {
	engine    *Engine
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(engine *Engine, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		engine:    engine,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Estimate(ctx context.Context, t trip.Trip, raw []lineitem.RawItem) (*Result, error) {
	totals, items, err := s.engine.Recompute(ctx, t, raw)
	if err != nil {
		s.logFailure(t, err)
		return nil, err
	}

	s.logger.Info("estimate computed",
		"trip_id", t.ID,
		"days", len(totals.Days),
		"items", len(items),
		"grand_total_cents", totals.GrandTotalCents,
		"input_fingerprint", totals.InputFingerprint)

	if s.publisher != nil {
		event := events.NewEstimateComputedEvent(t.ID, totals.InputFingerprint, totals.GrandTotalCents, len(totals.Days))
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish estimate event", "trip_id", t.ID, "error", err)
		}
	}

	return &Result{Trip: t, Items: items, Totals: totals}, nil
}

func (s *Service) logFailure(t trip.Trip, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		s.logger.Error("estimate failed", "trip_id", t.ID, "error", err)
		return
	}
	attrs := []any{"trip_id", t.ID, "code", appErr.Code, "error", appErr.GetDetailedMessage()}
	if internal.IsRetryable(err) {
		s.logger.Warn("estimate failed, rate provider unavailable", append(attrs, "cause", appErr.Cause)...)
		return
	}
	s.logger.Info("estimate rejected", attrs...)
}

package voucher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/tdy-voucher/internal"
	voucherDatamodel "github.com/frahmantamala/tdy-voucher/internal/core/datamodel/voucher"
	"github.com/frahmantamala/tdy-voucher/internal/core/events"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

var ErrVoucherNotFound = errors.New("voucher not found")

type Repository interface {
	Save(ctx context.Context, v *TdyVoucher) error
	// GetDocument only returns vouchers archived for travelerID.
	GetDocument(ctx context.Context, id, travelerID string) ([]byte, error)
	ListByTraveler(ctx context.Context, travelerID string, limit, offset int) ([]voucherDatamodel.TdyVoucher, error)
}

type Service struct {
	engine    Estimator
	assembler *Assembler
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(engine Estimator, repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		engine:    engine,
		assembler: NewAssembler(),
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Finalize runs Draft to Estimated to Finalized for one submission. The access
// claim is checked before any rate is looked up.
func (s *Service) Finalize(ctx context.Context, t trip.Trip, raw []lineitem.RawItem, expectedFingerprint string, premium bool) (*TdyVoucher, error) {
	if err := CheckAccess(premium); err != nil {
		s.logger.Warn("voucher finalization denied", "trip_id", t.ID, "traveler_id", t.TravelerID)
		s.publish(ctx, events.NewFinalizeDeniedEvent(t.ID, t.TravelerID))
		return nil, err
	}

	items, err := lineitem.Classify(t, raw)
	if err != nil {
		return nil, err
	}
	if expectedFingerprint != "" && expectedFingerprint != estimate.InputFingerprint(t, items) {
		s.logger.Info("stale estimate submitted for finalization", "trip_id", t.ID)
		return nil, internal.NewConflictError("the trip or its items changed since the estimate was computed; recompute before finalizing",
			internal.ErrCodeStaleEstimate)
	}

	lc, err := NewDraft(t, items).Recompute(ctx, s.engine)
	if err != nil {
		return nil, err
	}
	lc, err = lc.Finalize(s.assembler, premium)
	if err != nil {
		return nil, err
	}
	v, _ := lc.Voucher()

	if s.repo != nil {
		if err := s.repo.Save(ctx, v); err != nil {
			s.logger.Error("failed to archive voucher", "voucher_id", v.ID, "error", err)
			return nil, internal.NewInternalError("failed to archive voucher", err)
		}
	}

	s.logger.Info("voucher finalized",
		"voucher_id", v.ID,
		"trip_id", t.ID,
		"grand_total_cents", v.Estimate.GrandTotalCents,
		"open_items", len(v.Checklist))
	s.publish(ctx, events.NewVoucherFinalizedEvent(v.ID, t.ID, t.TravelerID, v.Estimate.GrandTotalCents, len(v.Checklist)))

	return v, nil
}

// Document returns the archived export of a voucher, byte for byte. Another
// traveler's voucher is reported as not found.
func (s *Service) Document(ctx context.Context, id, travelerID string) ([]byte, error) {
	if s.repo == nil {
		return nil, internal.NewNotFoundError("voucher archive is not configured", internal.ErrCodeVoucherNotFound)
	}
	doc, err := s.repo.GetDocument(ctx, id, travelerID)
	if err != nil {
		if errors.Is(err, ErrVoucherNotFound) {
			return nil, internal.NewNotFoundError("voucher not found", internal.ErrCodeVoucherNotFound)
		}
		s.logger.Error("failed to load voucher", "voucher_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load voucher", err)
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, travelerID string, limit, offset int) ([]Summary, error) {
	if s.repo == nil {
		return []Summary{}, nil
	}
	rows, err := s.repo.ListByTraveler(ctx, travelerID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list vouchers", "traveler_id", travelerID, "error", err)
		return nil, internal.NewInternalError("failed to list vouchers", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, SummaryFromDataModel(row))
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeEstimateComputed = "estimate.computed"
	EventTypeVoucherFinalized = "voucher.finalized"
	EventTypeFinalizeDenied   = "voucher.finalize_denied"
)

type EstimateComputedEvent struct {
	BaseEvent
	TripID           string `json:"trip_id"`
	InputFingerprint string `json:"input_fingerprint"`
	GrandTotalCents  int64  `json:"grand_total_cents"`
	Days             int    `json:"days"`
}

func NewEstimateComputedEvent(tripID, fingerprint string, grandTotal int64, days int) *EstimateComputedEvent {
	return &EstimateComputedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeEstimateComputed,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"trip_id":           tripID,
				"input_fingerprint": fingerprint,
				"grand_total_cents": grandTotal,
				"days":              days,
			},
		},
		TripID:           tripID,
		InputFingerprint: fingerprint,
		GrandTotalCents:  grandTotal,
		Days:             days,
	}
}

type VoucherFinalizedEvent struct {
	BaseEvent
	VoucherID       string `json:"voucher_id"`
	TripID          string `json:"trip_id"`
	TravelerID      string `json:"traveler_id"`
	GrandTotalCents int64  `json:"grand_total_cents"`
	OpenItems       int    `json:"open_items"`
}

func NewVoucherFinalizedEvent(voucherID, tripID, travelerID string, grandTotal int64, openItems int) *VoucherFinalizedEvent {
	return &VoucherFinalizedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeVoucherFinalized,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"voucher_id":        voucherID,
				"trip_id":           tripID,
				"traveler_id":       travelerID,
				"grand_total_cents": grandTotal,
				"open_items":        openItems,
			},
		},
		VoucherID:       voucherID,
		TripID:          tripID,
		TravelerID:      travelerID,
		GrandTotalCents: grandTotal,
		OpenItems:       openItems,
	}
}

func NewFinalizeDeniedEvent(tripID, travelerID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventTypeFinalizeDenied,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"trip_id":     tripID,
			"traveler_id": travelerID,
		},
	}
}

// RegisterAuditLog subscribes a handler that writes every TDY event to the audit logger.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	audit := func(ctx context.Context, event Event) error {
		attrs := []any{"event_type", event.EventType(), "event_id", event.EventID(), "occurred_at", event.OccurredAt()}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			for k, v := range data {
				attrs = append(attrs, k, v)
			}
		}
		logger.InfoContext(ctx, "audit", attrs...)
		return nil
	}
	for _, t := range []string{EventTypeEstimateComputed, EventTypeVoucherFinalized, EventTypeFinalizeDenied} {
		bus.Subscribe(t, audit)
	}
}

package estimate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/transport"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
	"github.com/frahmantamala/tdy-voucher/pkg/logger"
)

type ServiceAPI interface {
	Estimate(ctx context.Context, t trip.Trip, raw []lineitem.RawItem) (*Result, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CreateEstimate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	travelerID, err := transport.BindTraveler(r.Context(), req.Trip.TravelerID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	req.Trip.TravelerID = travelerID
	t, err := req.Trip.ToTrip()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Estimate(r.Context(), t, req.Items)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, EstimateResponse{
		Trip:   result.Trip.Summary(),
		Totals: result.Totals,
	})
}

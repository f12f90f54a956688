package voucher

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/auth"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/transport"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
	"github.com/frahmantamala/tdy-voucher/pkg/logger"
)

type ServiceAPI interface {
	Finalize(ctx context.Context, t trip.Trip, raw []lineitem.RawItem, expectedFingerprint string, premium bool) (*TdyVoucher, error)
	Document(ctx context.Context, id, travelerID string) ([]byte, error)
	List(ctx context.Context, travelerID string, limit, offset int) ([]Summary, error)
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

func (h *Handler) FinalizeVoucher(w http.ResponseWriter, r *http.Request) {
	var req FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("FinalizeVoucher: invalid request body", "error", err)
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

	v, err := h.Service.Finalize(r.Context(), t, req.Items, req.InputFingerprint, auth.HasPremium(r.Context()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	doc, err := v.Export()
	if err != nil {
		h.HandleServiceError(w, internal.NewInternalError("failed to export voucher", err))
		return
	}
	h.writeDocument(w, http.StatusCreated, v.ID, doc)
}

func (h *Handler) GetVoucher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid voucher ID")
		return
	}

	doc, err := h.Service.Document(r.Context(), id, internal.TravelerIDFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeDocument(w, http.StatusOK, id, doc)
}

func (h *Handler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	travelerID := internal.TravelerIDFromContext(r.Context())

	limit := 20
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	vouchers, err := h.Service.List(r.Context(), travelerID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{Vouchers: vouchers, Limit: limit, Offset: offset})
}

// writeDocument sends the export bytes untouched so clients can compare them.
func (h *Handler) writeDocument(w http.ResponseWriter, status int, id string, doc []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", strconv.Quote(id))
	w.WriteHeader(status)
	if _, err := w.Write(doc); err != nil {
		h.Logger.Error("failed to write voucher document", "voucher_id", id, "error", err)
	}
}

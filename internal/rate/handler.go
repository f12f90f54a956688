package rate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/transport"
	"github.com/frahmantamala/tdy-voucher/pkg/logger"
)

type ResolverAPI interface {
	Resolve(ctx context.Context, locality string, date calendar.Date) (Snapshot, error)
}

// RateResponse wraps a snapshot the way the HTTP provider expects it, so one
// deployment can serve as another's upstream.
type RateResponse struct {
	Data Snapshot `json:"data"`
}

type Handler struct {
	*transport.BaseHandler
	Resolver ResolverAPI
}

func NewHandler(resolver ResolverAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Resolver:    resolver,
	}
}

func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	locality := r.URL.Query().Get("locality")
	dateStr := r.URL.Query().Get("date")

	date, err := calendar.Parse(dateStr)
	if err != nil {
		h.HandleServiceError(w, internal.NewValidationFieldError("date", "date must be YYYY-MM-DD", internal.ErrCodeInvalidDate))
		return
	}

	snap, err := h.Resolver.Resolve(r.Context(), locality, date)
	if err != nil {
		if internal.HasCode(err, internal.ErrCodeRateNotFound) {
			// The provider contract reads 404 as "not listed".
			appErr, _ := internal.IsAppError(err)
			h.WriteJSON(w, http.StatusNotFound, internal.Response{Error: appErr})
			return
		}
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RateResponse{Data: snap})
}

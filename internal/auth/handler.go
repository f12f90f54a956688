package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/transport"
	"github.com/frahmantamala/tdy-voucher/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Tokens TokenGenerator
}

func NewHandler(tokens TokenGenerator) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Tokens:      tokens,
	}
}

// AuthMiddleware requires a valid bearer token and puts its claims, the
// traveler ID and a traveler-scoped logger on the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.HandleServiceError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Tokens.ValidateToken(token)
		if err != nil {
			h.Logger.Warn("token validation failed", "error", err)
			message := "invalid token"
			if errors.Is(err, ErrTokenExpired) {
				message = "token expired"
			}
			h.HandleServiceError(w, internal.NewUnauthorizedError(message, internal.ErrCodeInvalidToken))
			return
		}

		ctx := ContextWithClaims(r.Context(), claims)
		ctx = internal.ContextWithTravelerID(ctx, claims.TravelerID)
		ctx = logger.With(ctx, "traveler_id", claims.TravelerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

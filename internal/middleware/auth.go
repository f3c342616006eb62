package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/folio-ledger/internal/auth"
	"github.com/josh-kwaku/folio-ledger/internal/handler"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			staff, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithStaff(r.Context(), *staff)
			ctx = logging.With(ctx, "staff_id", staff.ID, "hotel_id", staff.HotelID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

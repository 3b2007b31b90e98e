package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/edufam/edufam-backend/internal/api/response"
	"github.com/rs/zerolog/hlog"
)

// Recover turns a panic into a SERVER_ERROR envelope. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			hlog.FromRequest(r).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			response.ServerError(w)
		}()

		next.ServeHTTP(w, r)
	})
}

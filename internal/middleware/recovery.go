package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500 and an error log line. It uses
// the request-scoped logger when Logger runs first. Upgraded connections no
// longer own an HTTP response, so nothing is written for them.
func Recovery(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				l := log
				if cl := zerolog.Ctx(r.Context()); cl.GetLevel() != zerolog.Disabled {
					l = *cl
				}
				upgrade := r.Header.Get("Upgrade") != ""
				l.Error().
					Interface("panic", p).
					Bytes("stack", debug.Stack()).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bool("upgrade", upgrade).
					Msg("Panic recovered")

				if !upgrade {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

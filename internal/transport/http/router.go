package http

import (
	"encoding/json"
	"net/http"
	"time"

	"clafootix/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/logger"
)

// NewRouter wires the HTTP endpoints of the round service.
func NewRouter(service *app.RoundService, auth *Authenticator) http.Handler {
	ws := NewWSHandler(service, auth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/rounds", listRounds(service))
	r.Get("/ws", ws.ServeWS)
	return r
}

func listRounds(service *app.RoundService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rounds, err := service.ListRounds(r.Context())
		if err != nil {
			logger.Errorf("list rounds: %v", err)
			writeJSON(w, http.StatusBadGateway, errorPayload{Message: "rounds unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, rounds)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("write response: %v", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Infof("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

package http

import (
	"net/http"

	"github.com/mind-engage/medscore/internal/reftable"
)

// Tables exposes the active reference table. *reftable.Holder satisfies it.
type Tables interface {
	Current() *reftable.Table
}

type healthResp struct {
	Status           string `json:"status"`
	ConditionsLoaded int    `json:"conditions_loaded"`
}

// GET /health
func HealthHandler(tables Tables) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := tables.Current()
		if t.Len() == 0 {
			writeErr(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		writeJSON(w, http.StatusOK, healthResp{Status: "healthy", ConditionsLoaded: t.Len()})
	}
}

// GET /readyz
func ReadyHandler(tables Tables) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tables.Current().Len() == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mind-engage/medscore/internal/metrics"
	"github.com/mind-engage/medscore/internal/scoring"
)

const maxBodyBytes = 1 << 20

// Scorer is the part of *scoring.Scorer the handlers need.
type Scorer interface {
	Score(age int, conditions []string) (scoring.Result, error)
}

type scoreReq struct {
	Age        *int      `json:"age"`
	Conditions *[]string `json:"conditions"`
}

type scoreResp struct {
	Score float64 `json:"score"`
}

// POST /score
func ScoreHandler(s Scorer, m *metrics.Metrics, log *slog.Logger) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreReq
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			m.ObserveRequest(metrics.OutcomeBadRequest)
			writeErr(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			m.ObserveRequest(metrics.OutcomeBadRequest)
			writeErr(w, http.StatusBadRequest, "bad json: trailing data after request body")
			return
		}
		if req.Age == nil {
			m.ObserveRequest(metrics.OutcomeBadRequest)
			writeErr(w, http.StatusBadRequest, "age required")
			return
		}
		if req.Conditions == nil {
			m.ObserveRequest(metrics.OutcomeBadRequest)
			writeErr(w, http.StatusBadRequest, "conditions required")
			return
		}

		res, err := s.Score(*req.Age, *req.Conditions)
		if err != nil {
			m.ObserveError(err)
			switch {
			case errors.Is(err, scoring.ErrInvalidAge):
				writeErr(w, http.StatusUnprocessableEntity, err.Error())
			case errors.Is(err, scoring.ErrTableUnavailable):
				writeErr(w, http.StatusServiceUnavailable, "service unavailable")
			default:
				writeErr(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		m.ObserveScore(res)
		if len(res.Unmatched) > 0 {
			log.DebugContext(r.Context(), "unmatched conditions",
				"request_id", middleware.GetReqID(r.Context()),
				"unmatched", res.Unmatched)
		}
		writeJSON(w, http.StatusOK, scoreResp{Score: res.Score})
	}
}

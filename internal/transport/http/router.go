package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"polcoord/internal/domain"
)

// NewRouter mounts the REST API, the quiz websocket and the health probe.
func NewRouter(api *API, ws *WSHandler, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/questionnaire", api.Questionnaire)
		r.Route("/records", func(r chi.Router) {
			r.Get("/", api.ListRecords)
			r.Delete("/{index}", api.DeleteRecord)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/frequency", api.FrequencyReport)
			r.Get("/describe", api.DescribeReport)
			r.Get("/pivot", api.PivotReport)
		})
		r.Route("/charts", func(r chi.Router) {
			r.Get("/bar", api.BarChart)
			r.Get("/histogram", api.HistogramChart)
			r.Get("/boxplot", api.BoxPlotChart)
			r.Get("/scatter", api.ScatterChart)
		})
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errResp{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrFieldNotFound),
		errors.Is(err, domain.ErrUnknownAnswerOption),
		errors.Is(err, domain.ErrUnknownAggregation),
		errors.Is(err, domain.ErrInvalidRecordID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrQuestionnaireNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"polcoord/internal/app"
	"polcoord/internal/report"
)

// Choices are the selectable respondent categories offered by the client.
type Choices struct {
	Sexes        []string `json:"sexes"`
	Directions   []string `json:"directions"`
	Universities []string `json:"universities"`
	Courses      []string `json:"courses"`
}

// API serves the dataset, reports and chart series over REST.
type API struct {
	records *app.RecordStore
	quiz    *app.QuizService
	choices Choices
	pdfFont string
	log     *zap.Logger
}

func NewAPI(records *app.RecordStore, quiz *app.QuizService, choices Choices, pdfFont string, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{records: records, quiz: quiz, choices: choices, pdfFont: pdfFont, log: log}
}

type questionnaireResponse struct {
	ID        string   `json:"id"`
	Questions int      `json:"questions"`
	Options   []string `json:"options"`
	Choices
}

func (a *API) Questionnaire(w http.ResponseWriter, r *http.Request) {
	q, err := a.quiz.Questionnaire(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionnaireResponse{
		ID:        q.ID,
		Questions: len(q.Questions),
		Options:   q.Options.Labels(),
		Choices:   a.choices,
	})
}

func (a *API) ListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"records": a.records.Snapshot()})
}

// DeleteRecord removes the record at a 0-based row index.
func (a *API) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Error: "index must be an integer"})
		return
	}
	ds, err := a.records.Delete(r.Context(), index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": ds})
}

func (a *API) FrequencyReport(w http.ResponseWriter, r *http.Request) {
	table := report.Frequency(a.records.Snapshot(), r.URL.Query().Get("field"))
	if wantsPDF(r) {
		a.writePDF(w, table.Table())
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// DescribeReport answers with the display table; raw statistics may be NaN,
// which JSON cannot carry.
func (a *API) DescribeReport(w http.ResponseWriter, r *http.Request) {
	table, err := report.Describe(a.records.Snapshot(), r.URL.Query()["field"]...)
	if err != nil {
		writeError(w, err)
		return
	}
	if wantsPDF(r) {
		a.writePDF(w, table.Table())
		return
	}
	writeJSON(w, http.StatusOK, table.Table())
}

func (a *API) PivotReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agg, err := report.ParseAgg(q.Get("agg"))
	if err != nil {
		writeError(w, err)
		return
	}
	table, err := report.Pivot(a.records.Snapshot(), q.Get("value"), q.Get("column"), q.Get("index"), agg)
	if err != nil {
		writeError(w, err)
		return
	}
	if table == nil {
		writeJSON(w, http.StatusNotFound, errResp{Error: "column not found: " + q.Get("column")})
		return
	}
	if wantsPDF(r) {
		a.writePDF(w, table.Table())
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (a *API) BarChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chart, err := report.GroupedCounts(a.records.Snapshot(), q.Get("field"), q.Get("group"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (a *API) HistogramChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bins := 0
	if raw := q.Get("bins"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errResp{Error: "bins must be a positive integer"})
			return
		}
		bins = n
	}
	chart, err := report.Histogram(a.records.Snapshot(), q.Get("category"), q.Get("value"), bins)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (a *API) BoxPlotChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	boxes, err := report.BoxPlot(a.records.Snapshot(), q.Get("category"), q.Get("value"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"boxes": boxes})
}

func (a *API) ScatterChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	series, err := report.Scatter(a.records.Snapshot(), q.Get("category"), q.Get("x"), q.Get("y"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": series})
}

func wantsPDF(r *http.Request) bool {
	return r.URL.Query().Get("format") == "pdf"
}

func (a *API) writePDF(w http.ResponseWriter, tables ...report.Table) {
	var buf bytes.Buffer
	if err := report.WritePDF(&buf, a.pdfFont, tables...); err != nil {
		a.log.Error("render pdf", zap.Error(err))
		writeError(w, errors.New("render pdf failed"))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

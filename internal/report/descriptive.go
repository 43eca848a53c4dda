package report

import (
	"errors"
	"fmt"
	"math"

	"polcoord/internal/domain"
)

// StatLabels are the row labels of a descriptive report, in display order.
var StatLabels = []string{
	"Всего",
	"Среднее",
	"Отклонение",
	"Минимальное",
	"25%",
	"50%",
	"75%",
	"Максимальное",
}

// Summary holds the descriptive statistics of one numeric column.
// Statistics that are undefined for the sample size are NaN.
type Summary struct {
	Field string  `json:"field"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	Max   float64 `json:"max"`
}

// Values lists the statistics in StatLabels order.
func (s Summary) Values() []float64 {
	return []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.P25, s.P50, s.P75, s.Max}
}

// DescriptiveTable has one column per field and one row per StatLabels entry.
type DescriptiveTable struct {
	Summaries []Summary `json:"summaries"`
}

// Describe computes count, mean, sample standard deviation, min, quartiles
// (linear interpolation) and max for each numeric field.
func Describe(ds domain.Dataset, fields ...string) (DescriptiveTable, error) {
	if len(fields) == 0 {
		return DescriptiveTable{}, fmt.Errorf("%w: no fields requested", domain.ErrFieldNotFound)
	}
	out := DescriptiveTable{Summaries: make([]Summary, 0, len(fields))}
	for _, field := range fields {
		values, err := numericColumn(ds, field)
		if err != nil {
			return DescriptiveTable{}, err
		}
		out.Summaries = append(out.Summaries, summarize(field, values))
	}
	return out, nil
}

func summarize(field string, values []float64) Summary {
	s := sorted(values)
	summary := Summary{
		Field: field,
		Count: len(s),
		Mean:  mean(s),
		Std:   sampleStd(s),
		Min:   math.NaN(),
		P25:   quantile(s, 0.25),
		P50:   quantile(s, 0.5),
		P75:   quantile(s, 0.75),
		Max:   math.NaN(),
	}
	if len(s) > 0 {
		summary.Min = s[0]
		summary.Max = s[len(s)-1]
	}
	return summary
}

// Row returns the statistic at StatLabels[i] for every field.
func (d DescriptiveTable) Row(i int) ([]float64, error) {
	if i < 0 || i >= len(StatLabels) {
		return nil, errors.New("statistic row out of range")
	}
	out := make([]float64, len(d.Summaries))
	for j, s := range d.Summaries {
		out[j] = s.Values()[i]
	}
	return out, nil
}

// Package report builds read-only tabular summaries and chart series over a
// dataset snapshot. Nothing here mutates the dataset.
package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"polcoord/internal/domain"
)

// numericColumn returns the values of a numeric column in row order.
func numericColumn(ds domain.Dataset, field string) ([]float64, error) {
	if err := requireNumeric(field); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(ds))
	for _, rec := range ds {
		v, _ := rec.Number(field)
		out = append(out, v)
	}
	return out, nil
}

func requireColumn(field string) error {
	if !domain.HasColumn(field) {
		return fmt.Errorf("%w: %q", domain.ErrFieldNotFound, field)
	}
	return nil
}

func requireNumeric(field string) error {
	if err := requireColumn(field); err != nil {
		return err
	}
	if !domain.IsNumericColumn(field) {
		return fmt.Errorf("%w: %q is not numeric", domain.ErrFieldNotFound, field)
	}
	return nil
}

// categories lists the distinct values of field in first-encountered order.
func categories(ds domain.Dataset, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range ds {
		v, _ := rec.Text(field)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// sortKeys orders distinct keys ascending. Keys that parse as numbers compare
// numerically (so course "2" precedes "10") and sort before text keys.
func sortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, aErr := strconv.ParseFloat(keys[i], 64)
		b, bErr := strconv.ParseFloat(keys[j], 64)
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil || bErr == nil:
			return aErr == nil
		}
		return keys[i] < keys[j]
	})
}

func sorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// quantile uses linear interpolation between closest ranks over sorted input.
func quantile(sortedValues []float64, p float64) float64 {
	n := len(sortedValues)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sortedValues[lo]
	}
	frac := pos - float64(lo)
	return sortedValues[lo] + (sortedValues[hi]-sortedValues[lo])*frac
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return sum(values) / float64(len(values))
}

// sampleStd uses the N-1 denominator; undefined below two observations.
func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

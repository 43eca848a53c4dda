package report

import (
	"fmt"
	"math"
	"strings"

	"polcoord/internal/domain"
)

// Agg is a pivot cell aggregation.
type Agg string

const (
	AggSum    Agg = "sum"
	AggMean   Agg = "mean"
	AggMin    Agg = "min"
	AggMax    Agg = "max"
	AggMedian Agg = "median"
)

// Aggs lists the supported aggregations.
var Aggs = []Agg{AggSum, AggMean, AggMin, AggMax, AggMedian}

// ParseAgg accepts an aggregation name, case-insensitively.
func ParseAgg(s string) (Agg, error) {
	a := Agg(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Aggs {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w %q", domain.ErrUnknownAggregation, s)
}

// Apply aggregates a non-empty slice.
func (a Agg) Apply(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), nil
	}
	switch a {
	case AggSum:
		return sum(values), nil
	case AggMean:
		return mean(values), nil
	case AggMin:
		return sorted(values)[0], nil
	case AggMax:
		s := sorted(values)
		return s[len(s)-1], nil
	case AggMedian:
		return quantile(sorted(values), 0.5), nil
	default:
		return 0, fmt.Errorf("%w %q", domain.ErrUnknownAggregation, string(a))
	}
}

// PivotTable is a cross-tabulation: rows keyed by the index field, columns by
// the column field. A nil cell means no row matched that pair.
type PivotTable struct {
	Value   string       `json:"value"`
	Column  string       `json:"column"`
	Index   string       `json:"index"`
	Agg     Agg          `json:"agg"`
	RowKeys []string     `json:"rowKeys"`
	ColKeys []string     `json:"colKeys"`
	Cells   [][]*float64 `json:"cells"`
}

// Cell returns the aggregate at (row, col) and whether any record matched.
func (p *PivotTable) Cell(row, col int) (float64, bool) {
	c := p.Cells[row][col]
	if c == nil {
		return 0, false
	}
	return *c, true
}

// Pivot aggregates value over every (index, column) pair present in ds.
// Keys are sorted ascending, numerically for numeric columns.
//
// When column is not a dataset column Pivot returns (nil, nil): the caller
// reports "column not found" without failing. An unknown index or value field
// (or a non-numeric value) is a misuse and fails with ErrFieldNotFound.
func Pivot(ds domain.Dataset, value, column, index string, agg Agg) (*PivotTable, error) {
	if !domain.HasColumn(column) {
		return nil, nil
	}
	if _, err := ParseAgg(string(agg)); err != nil {
		return nil, err
	}
	if err := requireColumn(index); err != nil {
		return nil, err
	}
	if err := requireNumeric(value); err != nil {
		return nil, err
	}

	type cellKey struct{ row, col string }
	groups := make(map[cellKey][]float64)
	rowSeen := make(map[string]struct{})
	colSeen := make(map[string]struct{})
	var rowKeys, colKeys []string
	for _, rec := range ds {
		r, _ := rec.Text(index)
		c, _ := rec.Text(column)
		v, _ := rec.Number(value)
		k := cellKey{r, c}
		groups[k] = append(groups[k], v)
		if _, ok := rowSeen[r]; !ok {
			rowSeen[r] = struct{}{}
			rowKeys = append(rowKeys, r)
		}
		if _, ok := colSeen[c]; !ok {
			colSeen[c] = struct{}{}
			colKeys = append(colKeys, c)
		}
	}
	sortKeys(rowKeys)
	sortKeys(colKeys)

	table := &PivotTable{
		Value:   value,
		Column:  column,
		Index:   index,
		Agg:     agg,
		RowKeys: rowKeys,
		ColKeys: colKeys,
		Cells:   make([][]*float64, len(rowKeys)),
	}
	for i, r := range rowKeys {
		table.Cells[i] = make([]*float64, len(colKeys))
		for j, c := range colKeys {
			values, ok := groups[cellKey{r, c}]
			if !ok {
				continue
			}
			v, err := agg.Apply(values)
			if err != nil {
				return nil, err
			}
			table.Cells[i][j] = &v
		}
	}
	return table, nil
}

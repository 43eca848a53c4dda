package report

import (
	"sort"

	"polcoord/internal/domain"
)

// FrequencyRow is one distinct value of a column.
type FrequencyRow struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FrequencyTable counts distinct values of a single column.
type FrequencyTable struct {
	Field string         `json:"field"`
	Rows  []FrequencyRow `json:"rows"`
}

// Frequency counts each distinct value of field. Rows are ordered by count,
// descending; equal counts keep the order in which values first appear.
// Percentages are 100*count/len(ds) and are not rounded.
//
// An unknown field yields an empty table rather than an error so that a stale
// field selection cannot break the caller.
func Frequency(ds domain.Dataset, field string) FrequencyTable {
	table := FrequencyTable{Field: field, Rows: []FrequencyRow{}}
	if !domain.HasColumn(field) || len(ds) == 0 {
		return table
	}

	index := make(map[string]int)
	for _, rec := range ds {
		v, _ := rec.Text(field)
		i, ok := index[v]
		if !ok {
			i = len(table.Rows)
			index[v] = i
			table.Rows = append(table.Rows, FrequencyRow{Value: v})
		}
		table.Rows[i].Count++
	}

	total := float64(len(ds))
	for i := range table.Rows {
		table.Rows[i].Percentage = 100 * float64(table.Rows[i].Count) / total
	}
	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Count > table.Rows[j].Count
	})
	return table
}

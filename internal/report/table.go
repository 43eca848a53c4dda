package report

import (
	"math"
	"strconv"

	"polcoord/internal/domain"
)

// Table is a rendered report: header plus display-formatted cells.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// FormatDecimal rounds to one decimal place for display. NaN renders empty.
func FormatDecimal(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// DatasetTable renders records in file column order.
func DatasetTable(ds domain.Dataset) Table {
	t := Table{Title: "Записи", Columns: append([]string(nil), domain.Columns...), Rows: make([][]string, 0, len(ds))}
	for _, rec := range ds {
		t.Rows = append(t.Rows, rec.Values())
	}
	return t
}

func (f FrequencyTable) Table() Table {
	t := Table{
		Title:   "Частоты: " + f.Field,
		Columns: []string{"Значение", "Частоты", "Процент"},
		Rows:    make([][]string, 0, len(f.Rows)),
	}
	for _, r := range f.Rows {
		t.Rows = append(t.Rows, []string{r.Value, strconv.Itoa(r.Count), FormatDecimal(r.Percentage)})
	}
	return t
}

func (d DescriptiveTable) Table() Table {
	t := Table{Title: "Описательная статистика", Columns: []string{""}}
	for _, s := range d.Summaries {
		t.Columns = append(t.Columns, s.Field)
	}
	for i, label := range StatLabels {
		values, _ := d.Row(i)
		row := []string{label}
		for _, v := range values {
			row = append(row, FormatDecimal(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (p *PivotTable) Table() Table {
	t := Table{
		Title:   "Сводная таблица: " + string(p.Agg) + "(" + p.Value + ")",
		Columns: append([]string{p.Index}, p.ColKeys...),
		Rows:    make([][]string, 0, len(p.RowKeys)),
	}
	for i, key := range p.RowKeys {
		row := []string{key}
		for j := range p.ColKeys {
			if v, ok := p.Cell(i, j); ok {
				row = append(row, FormatDecimal(v))
			} else {
				row = append(row, "")
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

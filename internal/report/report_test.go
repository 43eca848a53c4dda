package report

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polcoord/internal/domain"
)

func sampleDataset() domain.Dataset {
	return domain.Dataset{
		{ID: 1, Gender: "м", Field: "Экономика", University: "МГУ", Course: "1", X: 2, Y: -1, Z: 0},
		{ID: 2, Gender: "ж", Field: "Право", University: "СПбГУ", Course: "3", X: -1.5, Y: 4, Z: 2},
		{ID: 3, Gender: "ж", Field: "Экономика", University: "МГУ", Course: "2", X: 0, Y: 0, Z: -3},
		{ID: 4, Gender: "м", Field: "История", University: "МГУ", Course: "1", X: 5, Y: 1, Z: 1},
		{ID: 5, Gender: "ж", Field: "Экономика", University: "СПбГУ", Course: "3", X: 3, Y: -2, Z: 4},
	}
}

func TestFrequencyOrdersByCountThenFirstSeen(t *testing.T) {
	table := Frequency(sampleDataset(), domain.ColumnField)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Экономика", table.Rows[0].Value)
	assert.Equal(t, 3, table.Rows[0].Count)
	assert.InDelta(t, 60.0, table.Rows[0].Percentage, 1e-9)
	// Право and История tie at one; Право appears first.
	assert.Equal(t, "Право", table.Rows[1].Value)
	assert.Equal(t, "История", table.Rows[2].Value)
}

func TestFrequencyPercentagesSumTo100(t *testing.T) {
	ds := sampleDataset()
	for _, field := range domain.Columns {
		var total float64
		for _, row := range Frequency(ds, field).Rows {
			total += row.Percentage
		}
		assert.InDelta(t, 100.0, total, 1e-9, "field %s", field)
	}
}

func TestFrequencyUnknownFieldIsEmpty(t *testing.T) {
	table := Frequency(sampleDataset(), "party")
	assert.Empty(t, table.Rows)
	assert.Empty(t, Frequency(nil, domain.ColumnGender).Rows)
}

func TestDescribe(t *testing.T) {
	table, err := Describe(sampleDataset(), domain.ColumnX, domain.ColumnY)
	require.NoError(t, err)
	require.Len(t, table.Summaries, 2)

	// x = -1.5, 0, 2, 3, 5
	x := table.Summaries[0]
	assert.Equal(t, "x", x.Field)
	assert.Equal(t, 5, x.Count)
	assert.InDelta(t, 1.7, x.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(6.45), x.Std, 1e-9)
	assert.InDelta(t, -1.5, x.Min, 1e-9)
	assert.InDelta(t, 0.0, x.P25, 1e-9)
	assert.InDelta(t, 2.0, x.P50, 1e-9)
	assert.InDelta(t, 3.0, x.P75, 1e-9)
	assert.InDelta(t, 5.0, x.Max, 1e-9)

	row, err := table.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5}, row)
}

func TestDescribeInterpolatesPercentiles(t *testing.T) {
	ds := domain.Dataset{{ID: 1, X: 1}, {ID: 2, X: 2}, {ID: 3, X: 3}, {ID: 4, X: 4}}
	table, err := Describe(ds, domain.ColumnX)
	require.NoError(t, err)
	s := table.Summaries[0]
	assert.InDelta(t, 1.75, s.P25, 1e-9)
	assert.InDelta(t, 2.5, s.P50, 1e-9)
	assert.InDelta(t, 3.25, s.P75, 1e-9)
}

func TestDescribeSmallSamples(t *testing.T) {
	table, err := Describe(domain.Dataset{{ID: 1, Z: 7}}, domain.ColumnZ)
	require.NoError(t, err)
	s := table.Summaries[0]
	assert.Equal(t, 1, s.Count)
	assert.True(t, math.IsNaN(s.Std))
	assert.InDelta(t, 7.0, s.P50, 1e-9)

	empty, err := Describe(nil, domain.ColumnZ)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Summaries[0].Count)
	assert.True(t, math.IsNaN(empty.Summaries[0].Mean))
}

func TestDescribeRejectsUnknownAndCategorical(t *testing.T) {
	_, err := Describe(sampleDataset(), "party")
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
	_, err = Describe(sampleDataset(), domain.ColumnGender)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
	_, err = Describe(sampleDataset())
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestPivotMatchesDirectAggregation(t *testing.T) {
	ds := sampleDataset()
	for _, agg := range Aggs {
		table, err := Pivot(ds, domain.ColumnX, domain.ColumnGender, domain.ColumnUniversity, agg)
		require.NoError(t, err)
		require.NotNil(t, table)
		assert.Equal(t, []string{"МГУ", "СПбГУ"}, table.RowKeys)
		assert.Equal(t, []string{"ж", "м"}, table.ColKeys)

		for i, u := range table.RowKeys {
			for j, g := range table.ColKeys {
				var subset []float64
				for _, rec := range ds {
					if rec.University == u && rec.Gender == g {
						subset = append(subset, rec.X)
					}
				}
				got, ok := table.Cell(i, j)
				if len(subset) == 0 {
					assert.False(t, ok, "%s/%s should be empty", u, g)
					continue
				}
				want, err := agg.Apply(subset)
				require.NoError(t, err)
				require.True(t, ok)
				assert.InDelta(t, want, got, 1e-9, "%s %s/%s", agg, u, g)
			}
		}
	}
}

func TestPivotKnownCells(t *testing.T) {
	table, err := Pivot(sampleDataset(), domain.ColumnX, domain.ColumnGender, domain.ColumnUniversity, AggMean)
	require.NoError(t, err)

	// МГУ/м: 2 and 5
	v, ok := table.Cell(0, 1)
	require.True(t, ok)
	assert.InDelta(t, 3.5, v, 1e-9)
	// СПбГУ/м: no rows
	_, ok = table.Cell(1, 1)
	assert.False(t, ok)
}

func TestPivotSortsNumericKeysNumerically(t *testing.T) {
	ds := domain.Dataset{{ID: 1, Gender: "м", X: 10}, {ID: 2, Gender: "м", X: 9}, {ID: 10, Gender: "ж", X: 1}}
	table, err := Pivot(ds, domain.ColumnY, domain.ColumnGender, domain.ColumnID, AggSum)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "10"}, table.RowKeys)
}

func TestPivotSortsCourseKeysNumericallyBeforeText(t *testing.T) {
	ds := domain.Dataset{
		{ID: 1, Gender: "м", Course: "10", X: 1},
		{ID: 2, Gender: "м", Course: "магистратура", X: 2},
		{ID: 3, Gender: "ж", Course: "2", X: 3},
		{ID: 4, Gender: "ж", Course: "1", X: 4},
	}
	table, err := Pivot(ds, domain.ColumnX, domain.ColumnGender, domain.ColumnCourse, AggSum)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "10", "магистратура"}, table.RowKeys)
	assert.Equal(t, []string{"ж", "м"}, table.ColKeys)
}

func TestPivotFieldChecks(t *testing.T) {
	ds := sampleDataset()

	table, err := Pivot(ds, domain.ColumnX, "party", domain.ColumnUniversity, AggSum)
	assert.NoError(t, err)
	assert.Nil(t, table)

	_, err = Pivot(ds, domain.ColumnX, domain.ColumnGender, "party", AggSum)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
	_, err = Pivot(ds, "party", domain.ColumnGender, domain.ColumnUniversity, AggSum)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
	_, err = Pivot(ds, domain.ColumnCourse, domain.ColumnGender, domain.ColumnUniversity, AggSum)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
	_, err = Pivot(ds, domain.ColumnX, domain.ColumnGender, domain.ColumnUniversity, Agg("mode"))
	assert.ErrorIs(t, err, domain.ErrUnknownAggregation)
}

func TestParseAgg(t *testing.T) {
	agg, err := ParseAgg(" Median ")
	require.NoError(t, err)
	assert.Equal(t, AggMedian, agg)

	_, err = ParseAgg("avg")
	assert.ErrorIs(t, err, domain.ErrUnknownAggregation)
}

func TestGroupedCounts(t *testing.T) {
	chart, err := GroupedCounts(sampleDataset(), domain.ColumnUniversity, domain.ColumnGender)
	require.NoError(t, err)
	assert.Equal(t, []string{"МГУ", "СПбГУ"}, chart.Categories)
	assert.Equal(t, []string{"м", "ж"}, chart.Groups)
	assert.Equal(t, [][]int{{2, 1}, {0, 2}}, chart.Counts)

	_, err = GroupedCounts(sampleDataset(), "party", domain.ColumnGender)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestHistogramSharesEdges(t *testing.T) {
	chart, err := Histogram(sampleDataset(), domain.ColumnGender, domain.ColumnX, 4)
	require.NoError(t, err)
	// range -1.5..5 in four bins of 1.625
	require.Len(t, chart.Edges, 5)
	assert.InDelta(t, -1.5, chart.Edges[0], 1e-9)
	assert.InDelta(t, 5.0, chart.Edges[4], 1e-9)

	require.Len(t, chart.Series, 2)
	assert.Equal(t, "м", chart.Series[0].Category)
	assert.Equal(t, []int{0, 0, 1, 1}, chart.Series[0].Counts) // 2, 5
	assert.Equal(t, []int{2, 0, 1, 0}, chart.Series[1].Counts) // -1.5, 0, 3

	total := 0
	for _, s := range chart.Series {
		for _, c := range s.Counts {
			total += c
		}
	}
	assert.Equal(t, 5, total)
}

func TestHistogramDefaultsAndDegenerateRange(t *testing.T) {
	ds := domain.Dataset{{ID: 1, Gender: "м", X: 1}, {ID: 2, Gender: "м", X: 1}}
	chart, err := Histogram(ds, domain.ColumnGender, domain.ColumnX, 0)
	require.NoError(t, err)
	assert.Len(t, chart.Edges, DefaultBins+1)
	assert.InDelta(t, 0.5, chart.Edges[0], 1e-9)

	_, err = Histogram(ds, domain.ColumnGender, domain.ColumnCourse, 0)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestBoxPlotFindsOutliers(t *testing.T) {
	ds := domain.Dataset{}
	for i, x := range []float64{1, 2, 3, 4, 5, 100} {
		ds = append(ds, domain.Record{ID: i + 1, Gender: "м", X: x})
	}
	boxes, err := BoxPlot(ds, domain.ColumnGender, domain.ColumnX)
	require.NoError(t, err)
	require.Len(t, boxes, 1)

	box := boxes[0]
	assert.InDelta(t, 2.25, box.Q1, 1e-9)
	assert.InDelta(t, 3.5, box.Median, 1e-9)
	assert.InDelta(t, 4.75, box.Q3, 1e-9)
	assert.InDelta(t, 1.0, box.LowerWhisker, 1e-9)
	assert.InDelta(t, 5.0, box.UpperWhisker, 1e-9)
	assert.Equal(t, []float64{100}, box.Outliers)
}

func TestScatterGroupsPoints(t *testing.T) {
	series, err := Scatter(sampleDataset(), domain.ColumnUniversity, domain.ColumnX, domain.ColumnY)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "МГУ", series[0].Category)
	assert.Equal(t, []Point{{2, -1}, {0, 0}, {5, 1}}, series[0].Points)
	assert.Equal(t, []Point{{-1.5, 4}, {3, -2}}, series[1].Points)

	_, err = Scatter(sampleDataset(), domain.ColumnUniversity, domain.ColumnX, domain.ColumnGender)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestTablesRoundForDisplay(t *testing.T) {
	freq := Frequency(sampleDataset(), domain.ColumnGender).Table()
	assert.Equal(t, []string{"Значение", "Частоты", "Процент"}, freq.Columns)
	assert.Equal(t, []string{"ж", "3", "60.0"}, freq.Rows[0])

	desc, err := Describe(sampleDataset(), domain.ColumnX)
	require.NoError(t, err)
	dt := desc.Table()
	require.Len(t, dt.Rows, len(StatLabels))
	assert.Equal(t, []string{"Среднее", "1.7"}, dt.Rows[1])
	assert.Equal(t, "Максимальное", dt.Rows[7][0])

	pv, err := Pivot(sampleDataset(), domain.ColumnX, domain.ColumnGender, domain.ColumnUniversity, AggMean)
	require.NoError(t, err)
	pt := pv.Table()
	assert.Equal(t, []string{"university", "ж", "м"}, pt.Columns)
	assert.Equal(t, []string{"СПбГУ", "0.8", ""}, pt.Rows[1])

	ds := DatasetTable(sampleDataset()[:1]).Rows[0]
	assert.Equal(t, []string{"1", "м", "Экономика", "МГУ", "1", "2", "-1", "0"}, ds)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	tables := []Table{Frequency(sampleDataset(), domain.ColumnCourse).Table(), {Title: "empty"}}
	require.NoError(t, WritePDF(&buf, "", tables...))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	err := WritePDF(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.ttf"), tables...)
	assert.Error(t, err)
}

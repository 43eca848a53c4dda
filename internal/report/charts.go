package report

import (
	"math"

	"polcoord/internal/domain"
)

// DefaultBins is the histogram bin count used when none is given.
const DefaultBins = 10

// BarChart counts records per (category, group) pair for a clustered bar chart.
// Counts[i][j] belongs to Categories[i] and Groups[j].
type BarChart struct {
	Field      string   `json:"field"`
	GroupBy    string   `json:"groupBy"`
	Categories []string `json:"categories"`
	Groups     []string `json:"groups"`
	Counts     [][]int  `json:"counts"`
}

// GroupedCounts counts records by xField, split by groupField.
func GroupedCounts(ds domain.Dataset, xField, groupField string) (BarChart, error) {
	if err := requireColumn(xField); err != nil {
		return BarChart{}, err
	}
	if err := requireColumn(groupField); err != nil {
		return BarChart{}, err
	}
	chart := BarChart{
		Field:      xField,
		GroupBy:    groupField,
		Categories: categories(ds, xField),
		Groups:     categories(ds, groupField),
	}
	catIdx := indexOf(chart.Categories)
	groupIdx := indexOf(chart.Groups)
	chart.Counts = make([][]int, len(chart.Categories))
	for i := range chart.Counts {
		chart.Counts[i] = make([]int, len(chart.Groups))
	}
	for _, rec := range ds {
		c, _ := rec.Text(xField)
		g, _ := rec.Text(groupField)
		chart.Counts[catIdx[c]][groupIdx[g]]++
	}
	return chart, nil
}

// HistogramSeries holds the bin counts of one category.
type HistogramSeries struct {
	Category string `json:"category"`
	Counts   []int  `json:"counts"`
}

// HistogramChart shares bin edges across categories so series overlay.
// len(Edges) == bins+1; the last bin is closed on the right.
type HistogramChart struct {
	Category string            `json:"category"`
	Value    string            `json:"value"`
	Edges    []float64         `json:"edges"`
	Series   []HistogramSeries `json:"series"`
}

// Histogram bins valueField per category over the common value range.
func Histogram(ds domain.Dataset, categoryField, valueField string, bins int) (HistogramChart, error) {
	if err := requireColumn(categoryField); err != nil {
		return HistogramChart{}, err
	}
	values, err := numericColumn(ds, valueField)
	if err != nil {
		return HistogramChart{}, err
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	chart := HistogramChart{Category: categoryField, Value: valueField, Series: []HistogramSeries{}}
	if len(values) == 0 {
		return chart, nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	chart.Edges = make([]float64, bins+1)
	for i := range chart.Edges {
		chart.Edges[i] = lo + width*float64(i)
	}
	chart.Edges[bins] = hi

	cats := categories(ds, categoryField)
	catIdx := indexOf(cats)
	for _, c := range cats {
		chart.Series = append(chart.Series, HistogramSeries{Category: c, Counts: make([]int, bins)})
	}
	for i, rec := range ds {
		c, _ := rec.Text(categoryField)
		b := int((values[i] - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		chart.Series[catIdx[c]].Counts[b]++
	}
	return chart, nil
}

// BoxStats summarizes one category for a box plot. Whiskers reach the most
// extreme values within 1.5 IQR of the quartiles; anything beyond is an outlier.
type BoxStats struct {
	Category     string    `json:"category"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	LowerWhisker float64   `json:"lowerWhisker"`
	UpperWhisker float64   `json:"upperWhisker"`
	Outliers     []float64 `json:"outliers"`
}

// BoxPlot computes box statistics of valueField for every category.
func BoxPlot(ds domain.Dataset, categoryField, valueField string) ([]BoxStats, error) {
	if err := requireColumn(categoryField); err != nil {
		return nil, err
	}
	values, err := numericColumn(ds, valueField)
	if err != nil {
		return nil, err
	}

	cats := categories(ds, categoryField)
	catIdx := indexOf(cats)
	grouped := make([][]float64, len(cats))
	for i, rec := range ds {
		c, _ := rec.Text(categoryField)
		grouped[catIdx[c]] = append(grouped[catIdx[c]], values[i])
	}

	out := make([]BoxStats, 0, len(cats))
	for i, c := range cats {
		s := sorted(grouped[i])
		box := BoxStats{
			Category: c,
			Q1:       quantile(s, 0.25),
			Median:   quantile(s, 0.5),
			Q3:       quantile(s, 0.75),
			Outliers: []float64{},
		}
		iqr := box.Q3 - box.Q1
		lowFence, highFence := box.Q1-1.5*iqr, box.Q3+1.5*iqr
		box.LowerWhisker, box.UpperWhisker = box.Q1, box.Q3
		for _, v := range s {
			if v < lowFence || v > highFence {
				box.Outliers = append(box.Outliers, v)
				continue
			}
			box.LowerWhisker = math.Min(box.LowerWhisker, v)
			box.UpperWhisker = math.Max(box.UpperWhisker, v)
		}
		out = append(out, box)
	}
	return out, nil
}

// Point is one scatter plot marker.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScatterSeries holds the points of one category.
type ScatterSeries struct {
	Category string  `json:"category"`
	Points   []Point `json:"points"`
}

// Scatter pairs xField with yField per record, one series per category.
func Scatter(ds domain.Dataset, categoryField, xField, yField string) ([]ScatterSeries, error) {
	if err := requireColumn(categoryField); err != nil {
		return nil, err
	}
	xs, err := numericColumn(ds, xField)
	if err != nil {
		return nil, err
	}
	ys, err := numericColumn(ds, yField)
	if err != nil {
		return nil, err
	}

	cats := categories(ds, categoryField)
	catIdx := indexOf(cats)
	out := make([]ScatterSeries, len(cats))
	for i, c := range cats {
		out[i] = ScatterSeries{Category: c}
	}
	for i, rec := range ds {
		c, _ := rec.Text(categoryField)
		s := &out[catIdx[c]]
		s.Points = append(s.Points, Point{X: xs[i], Y: ys[i]})
	}
	return out, nil
}

func indexOf(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return m
}

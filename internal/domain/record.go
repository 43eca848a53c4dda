package domain

import (
	"fmt"
	"strconv"
)

// Column names of the respondent dataset, in persisted order.
const (
	ColumnID         = "id"
	ColumnGender     = "gender"
	ColumnField      = "field"
	ColumnUniversity = "university"
	ColumnCourse     = "course"
	ColumnX          = "x"
	ColumnY          = "y"
	ColumnZ          = "z"
)

// Columns is the stable column order of the backing file.
var Columns = []string{
	ColumnID, ColumnGender, ColumnField, ColumnUniversity, ColumnCourse, ColumnX, ColumnY, ColumnZ,
}

// HasColumn reports whether name is one of the dataset columns.
func HasColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsNumericColumn reports whether the column holds numbers (id and the three axes).
func IsNumericColumn(name string) bool {
	switch name {
	case ColumnID, ColumnX, ColumnY, ColumnZ:
		return true
	}
	return false
}

// Record is one respondent row.
type Record struct {
	ID         int     `json:"id"`
	Gender     string  `json:"gender"`
	Field      string  `json:"field"`
	University string  `json:"university"`
	Course     string  `json:"course"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
}

// NewRecord builds a record from respondent metadata and an accumulated score.
func NewRecord(id int, who Respondent, score Score) Record {
	return Record{
		ID:         id,
		Gender:     who.Gender,
		Field:      who.Field,
		University: who.University,
		Course:     who.Course,
		X:          score.X,
		Y:          score.Y,
		Z:          score.Z,
	}
}

// Text returns the value of column as display text; numbers use FormatNumber.
func (r Record) Text(column string) (string, bool) {
	switch column {
	case ColumnGender:
		return r.Gender, true
	case ColumnField:
		return r.Field, true
	case ColumnUniversity:
		return r.University, true
	case ColumnCourse:
		return r.Course, true
	}
	if v, ok := r.Number(column); ok {
		return FormatNumber(v), true
	}
	return "", false
}

// Number returns the value of a numeric column.
func (r Record) Number(column string) (float64, bool) {
	switch column {
	case ColumnID:
		return float64(r.ID), true
	case ColumnX:
		return r.X, true
	case ColumnY:
		return r.Y, true
	case ColumnZ:
		return r.Z, true
	}
	return 0, false
}

// Values returns the record in Columns order, formatted for the backing file.
func (r Record) Values() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i], _ = r.Text(c)
	}
	return out
}

// FormatNumber renders a score without trailing zeros ("2", "-1.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Dataset is the ordered collection of respondent records.
type Dataset []Record

// Clone returns an independent copy.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return Dataset{}
	}
	out := make(Dataset, len(d))
	copy(out, d)
	return out
}

// MaxID returns the largest id, or 0 for an empty dataset.
func (d Dataset) MaxID() int {
	max := 0
	for _, r := range d {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}

// NextID is the id a newly created record must carry.
func (d Dataset) NextID() int {
	return d.MaxID() + 1
}

// Without removes the record at row and renumbers the remaining ids to row+1.
// The receiver is left untouched.
func (d Dataset) Without(row int) (Dataset, error) {
	if row < 0 || row >= len(d) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, row, len(d))
	}
	out := make(Dataset, 0, len(d)-1)
	out = append(out, d[:row]...)
	out = append(out, d[row+1:]...)
	return out.renumber(), nil
}

// With appends rec; rec.ID must equal NextID.
func (d Dataset) With(rec Record) (Dataset, error) {
	if next := d.NextID(); rec.ID != next {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidRecordID, rec.ID, next)
	}
	out := make(Dataset, 0, len(d)+1)
	out = append(out, d...)
	return append(out, rec), nil
}

func (d Dataset) renumber() Dataset {
	for i := range d {
		d[i].ID = i + 1
	}
	return d
}

package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"polcoord/internal/domain"
)

// RecordRepository persists the respondent dataset as a UTF-8 CSV file with
// header id,gender,field,university,course,x,y,z. Every save rewrites the
// whole file through a temporary sibling that is renamed into place.
type RecordRepository struct {
	path string
}

func NewRecordRepository(path string) *RecordRepository {
	return &RecordRepository{path: path}
}

// Path returns the backing file location.
func (r *RecordRepository) Path() string {
	return r.path
}

// Init creates an empty backing file (header only) unless one already exists.
func (r *RecordRepository) Init(ctx context.Context) (bool, error) {
	if _, err := os.Stat(r.path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
		}
	}
	return true, r.Save(ctx, domain.Dataset{})
}

func (r *RecordRepository) Load(_ context.Context) (domain.Dataset, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}
	defer f.Close()

	ds, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrStorageRead, r.path, err)
	}
	return ds, nil
}

func (r *RecordRepository) Save(_ context.Context, ds domain.Dataset) error {
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	tmpName := tmp.Name()
	// Remove is a no-op once the rename has succeeded.
	defer os.Remove(tmpName)

	if err := encode(tmp, ds); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	return nil
}

func encode(w io.Writer, ds domain.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return err
	}
	for _, rec := range ds {
		if err := cw.Write(rec.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decode(rd io.Reader) (domain.Dataset, error) {
	cr := csv.NewReader(rd)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}
	pos, err := columnPositions(header)
	if err != nil {
		return nil, err
	}

	ds := domain.Dataset{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return ds, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRow(row, pos)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds = append(ds, rec)
	}
}

// columnPositions maps every expected column to its index in header.
// Extra, missing or repeated columns make the file malformed.
func columnPositions(header []string) (map[string]int, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if len(header) != len(domain.Columns) {
		return nil, fmt.Errorf("column mismatch: got %d columns, want %d", len(header), len(domain.Columns))
	}
	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if !domain.HasColumn(name) {
			return nil, fmt.Errorf("column mismatch: unexpected column %q", name)
		}
		if _, dup := pos[name]; dup {
			return nil, fmt.Errorf("column mismatch: duplicate column %q", name)
		}
		pos[name] = i
	}
	return pos, nil
}

func parseRow(row []string, pos map[string]int) (domain.Record, error) {
	var rec domain.Record
	id, err := parseID(row[pos[domain.ColumnID]])
	if err != nil {
		return rec, err
	}
	rec.ID = id
	rec.Gender = row[pos[domain.ColumnGender]]
	rec.Field = row[pos[domain.ColumnField]]
	rec.University = row[pos[domain.ColumnUniversity]]
	rec.Course = row[pos[domain.ColumnCourse]]

	for _, axis := range []struct {
		name string
		dst  *float64
	}{
		{domain.ColumnX, &rec.X},
		{domain.ColumnY, &rec.Y},
		{domain.ColumnZ, &rec.Z},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[pos[axis.name]]), 64)
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", axis.name, err)
		}
		*axis.dst = v
	}
	return rec, nil
}

// parseID accepts "3" and the "3.0" spelling some spreadsheet exports produce.
func parseID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("column id: invalid integer %q", raw)
	}
	return int(f), nil
}

package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"polcoord/internal/domain"
)

// RecordRepository abstracts where the dataset is persisted (CSV file, memory).
type RecordRepository interface {
	Load(ctx context.Context) (domain.Dataset, error)
	Save(ctx context.Context, ds domain.Dataset) error
}

// RecordStore owns the in-memory dataset. Mutations are serialized: a delete
// or append completes its save and reload before the next one starts, which
// keeps ids dense. Readers get copies and never block on disk writes.
type RecordStore struct {
	repo RecordRepository
	log  *zap.Logger

	writeMu sync.Mutex

	mu       sync.RWMutex
	snapshot domain.Dataset
}

// NewRecordStore loads the dataset once; a missing or malformed file is fatal.
func NewRecordStore(ctx context.Context, repo RecordRepository, log *zap.Logger) (*RecordStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &RecordStore{repo: repo, log: log}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns a copy of the current dataset.
func (s *RecordStore) Snapshot() domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Reload replaces the in-memory dataset with the backing file content.
func (s *RecordStore) Reload(ctx context.Context) (domain.Dataset, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reloadLocked(ctx)
}

// Delete removes the record at the 0-based row, renumbers ids to row+1,
// saves, and returns the dataset as re-read from storage (or as saved, if
// the re-read fails).
func (s *RecordStore) Delete(ctx context.Context, row int) (domain.Dataset, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := s.Snapshot().Without(row)
	if err != nil {
		return nil, err
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info("record deleted", zap.Int("row", row), zap.Int("records", len(next)))
	return s.reloadAfterSave(ctx, next), nil
}

// Append adds rec at the end. rec.ID must already be max(id)+1.
func (s *RecordStore) Append(ctx context.Context, rec domain.Record) (domain.Dataset, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.appendLocked(ctx, rec)
}

// Create assigns the next id to a new respondent record and appends it,
// holding the mutation lock so concurrent quiz completions cannot collide.
func (s *RecordStore) Create(ctx context.Context, who domain.Respondent, score domain.Score) (domain.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec := domain.NewRecord(s.Snapshot().NextID(), who, score)
	if _, err := s.appendLocked(ctx, rec); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

func (s *RecordStore) appendLocked(ctx context.Context, rec domain.Record) (domain.Dataset, error) {
	next, err := s.Snapshot().With(rec)
	if err != nil {
		return nil, err
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info("record appended", zap.Int("id", rec.ID), zap.Int("records", len(next)))
	return s.reloadAfterSave(ctx, next), nil
}

// reloadAfterSave re-reads storage once saved has been written. The mutation
// is already durable, so a failed reload falls back to saved rather than
// reporting an error that would invite a retry.
func (s *RecordStore) reloadAfterSave(ctx context.Context, saved domain.Dataset) domain.Dataset {
	ds, err := s.reloadLocked(ctx)
	if err != nil {
		s.log.Warn("keeping saved dataset after failed reload", zap.Error(err))
		return saved.Clone()
	}
	return ds
}

// persistLocked saves ds; on failure the in-memory snapshot is left as it was.
func (s *RecordStore) persistLocked(ctx context.Context, ds domain.Dataset) error {
	if err := s.repo.Save(ctx, ds); err != nil {
		s.log.Error("save dataset", zap.Error(err))
		return err
	}
	// The file now holds ds; keep memory in step even if the reload below fails.
	s.set(ds)
	return nil
}

func (s *RecordStore) reloadLocked(ctx context.Context) (domain.Dataset, error) {
	ds, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Error("reload dataset", zap.Error(err))
		return nil, fmt.Errorf("reload: %w", err)
	}
	s.set(ds)
	s.log.Debug("dataset loaded", zap.Int("records", len(ds)))
	return ds.Clone(), nil
}

func (s *RecordStore) set(ds domain.Dataset) {
	s.mu.Lock()
	s.snapshot = ds.Clone()
	s.mu.Unlock()
}

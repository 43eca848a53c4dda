package memory

import (
	"context"
	"sync"

	"polcoord/internal/domain"
)

// RecordRepository keeps the dataset in memory (useful for tests/demos).
type RecordRepository struct {
	mu    sync.Mutex
	data  domain.Dataset
	saves int
}

func NewRecordRepository(initial domain.Dataset) *RecordRepository {
	return &RecordRepository{data: initial.Clone()}
}

func (r *RecordRepository) Load(_ context.Context) (domain.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.Clone(), nil
}

func (r *RecordRepository) Save(_ context.Context, ds domain.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = ds.Clone()
	r.saves++
	return nil
}

// Saves counts successful Save calls.
func (r *RecordRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

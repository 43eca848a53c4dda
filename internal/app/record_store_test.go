package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"polcoord/internal/app"
	"polcoord/internal/domain"
	"polcoord/internal/infra/memory"
)

func TestDeleteRenumbersAndPersists(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository(sampleDataset())
	store := newStore(t, repo)

	got, err := store.Delete(ctx, 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := domain.Dataset{
		{ID: 1, Gender: "м", Field: "Экономика", University: "МГУ", Course: "1", X: 2, Y: -1, Z: 0},
		{ID: 2, Gender: "ж", Field: "Экономика", University: "МГУ", Course: "2", X: 0, Y: 0, Z: -3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delete result (-want +got):\n%s", diff)
	}
	persisted, _ := repo.Load(ctx)
	if diff := cmp.Diff(got, persisted); diff != "" {
		t.Fatalf("returned dataset differs from storage (-returned +stored):\n%s", diff)
	}
	if diff := cmp.Diff(got, store.Snapshot()); diff != "" {
		t.Fatalf("snapshot differs (-returned +snapshot):\n%s", diff)
	}
}

func TestDeleteRepeatedUntilOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, memory.NewRecordRepository(sampleDataset()))

	for remaining := 2; remaining >= 0; remaining-- {
		got, err := store.Delete(ctx, 0)
		if err != nil {
			t.Fatalf("delete with %d left: %v", remaining+1, err)
		}
		if len(got) != remaining {
			t.Fatalf("expected %d records, got %d", remaining, len(got))
		}
		for i, rec := range got {
			if rec.ID != i+1 {
				t.Fatalf("ids not dense: %+v", got)
			}
		}
	}
	if _, err := store.Delete(ctx, 0); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestDeleteOutOfRangeDoesNotSave(t *testing.T) {
	repo := memory.NewRecordRepository(sampleDataset())
	store := newStore(t, repo)

	if _, err := store.Delete(context.Background(), 3); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if repo.Saves() != 0 {
		t.Fatalf("expected no save, got %d", repo.Saves())
	}
	if len(store.Snapshot()) != 3 {
		t.Fatalf("snapshot must be unchanged")
	}
}

func TestAppendRequiresNextID(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, memory.NewRecordRepository(sampleDataset()))

	if _, err := store.Append(ctx, domain.Record{ID: 3}); !errors.Is(err, domain.ErrInvalidRecordID) {
		t.Fatalf("expected ErrInvalidRecordID, got %v", err)
	}
	got, err := store.Append(ctx, domain.Record{ID: 4, Gender: "ж", X: 1})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(got) != 4 || got[3].ID != 4 || got[3].Gender != "ж" {
		t.Fatalf("unexpected dataset %+v", got)
	}
}

func TestSaveFailureLeavesSnapshotUnchanged(t *testing.T) {
	repo := &failingRepo{RecordRepository: memory.NewRecordRepository(sampleDataset())}
	store := newStore(t, repo)
	repo.failSave = true

	if _, err := store.Delete(context.Background(), 0); !errors.Is(err, domain.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
	if _, err := store.Create(context.Background(), domain.Respondent{}, domain.Score{}); !errors.Is(err, domain.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
	if diff := cmp.Diff(sampleDataset(), store.Snapshot()); diff != "" {
		t.Fatalf("snapshot changed after failed save:\n%s", diff)
	}
}

func TestReloadFailureAfterSaveReportsSavedDataset(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{RecordRepository: memory.NewRecordRepository(sampleDataset())}
	store := newStore(t, repo)
	repo.failLoad = true

	got, err := store.Delete(ctx, 0)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[0].Field != "Право" {
		t.Fatalf("unexpected dataset after delete: %+v", got)
	}
	stored, _ := repo.RecordRepository.Load(ctx)
	if diff := cmp.Diff(stored, got); diff != "" {
		t.Fatalf("returned dataset differs from storage (-stored +returned):\n%s", diff)
	}
	if diff := cmp.Diff(stored, store.Snapshot()); diff != "" {
		t.Fatalf("snapshot differs from storage (-stored +snapshot):\n%s", diff)
	}

	rec, err := store.Create(ctx, domain.Respondent{Gender: "м"}, domain.Score{X: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != 3 || len(store.Snapshot()) != 3 {
		t.Fatalf("expected record 3 of 3, got id %d of %d", rec.ID, len(store.Snapshot()))
	}
}

func TestNewRecordStoreFailsOnUnreadableStorage(t *testing.T) {
	repo := &failingRepo{RecordRepository: memory.NewRecordRepository(nil), failLoad: true}
	if _, err := app.NewRecordStore(context.Background(), repo, nil); !errors.Is(err, domain.ErrStorageRead) {
		t.Fatalf("expected ErrStorageRead, got %v", err)
	}
}

func TestConcurrentCreatesKeepIDsDense(t *testing.T) {
	store := newStore(t, memory.NewRecordRepository(sampleDataset()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(context.Background(), domain.Respondent{Gender: "м"}, domain.Score{X: 1}); err != nil {
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()

	ds := store.Snapshot()
	if len(ds) != 23 {
		t.Fatalf("expected 23 records, got %d", len(ds))
	}
	for i, rec := range ds {
		if rec.ID != i+1 {
			t.Fatalf("ids not dense at %d: %d", i, rec.ID)
		}
	}
}

type failingRepo struct {
	*memory.RecordRepository
	failSave bool
	failLoad bool
}

func (r *failingRepo) Load(ctx context.Context) (domain.Dataset, error) {
	if r.failLoad {
		return nil, domain.ErrStorageRead
	}
	return r.RecordRepository.Load(ctx)
}

func (r *failingRepo) Save(ctx context.Context, ds domain.Dataset) error {
	if r.failSave {
		return domain.ErrStorageWrite
	}
	return r.RecordRepository.Save(ctx, ds)
}

func newStore(t *testing.T, repo app.RecordRepository) *app.RecordStore {
	t.Helper()
	store, err := app.NewRecordStore(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("new record store: %v", err)
	}
	return store
}

func sampleDataset() domain.Dataset {
	return domain.Dataset{
		{ID: 1, Gender: "м", Field: "Экономика", University: "МГУ", Course: "1", X: 2, Y: -1, Z: 0},
		{ID: 2, Gender: "ж", Field: "Право", University: "СПбГУ", Course: "3", X: -1.5, Y: 4, Z: 2},
		{ID: 3, Gender: "ж", Field: "Экономика", University: "МГУ", Course: "2", X: 0, Y: 0, Z: -3},
	}
}

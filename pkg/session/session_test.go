package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/wsm/pkg/config"
	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/wsm"
)

func TestRunUpdate(t *testing.T) {
	run := New("hash", "grid", graph.Options{MaxIterations: 10})
	if run.Status != StatusRunning || run.ID == "" {
		t.Fatalf("new run = %+v", run)
	}

	run.Update(wsm.Stats{Iterations: 10}, wsm.Solution{ScalarProduct: 9})
	if run.Status != StatusPaused || run.Calls != 1 {
		t.Errorf("after unfinished call: status=%s calls=%d", run.Status, run.Calls)
	}

	run.Update(wsm.Stats{Iterations: 14, Finished: true}, wsm.Solution{ScalarProduct: 7, Complete: true})
	if run.Status != StatusFinished || run.Calls != 2 {
		t.Errorf("after finishing call: status=%s calls=%d", run.Status, run.Calls)
	}

	res := run.Result()
	if res.RunID != run.ID || !res.Optimal() || res.Solution.ScalarProduct != 7 {
		t.Errorf("Result() = %+v", res)
	}
}

func TestStores(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{"file", func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			return s
		}},
		{"badger", func(t *testing.T) Store {
			s, err := NewBadgerStore(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			return s
		}},
		{"badger-memory", func(t *testing.T) Store {
			s, err := NewBadgerStore("")
			if err != nil {
				t.Fatal(err)
			}
			return s
		}},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			defer store.Close()
			testStore(t, store)
		})
	}
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	if _, err := store.Get(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	weightCap := uint64(40)
	old := New("p1", "old", graph.Options{WeightCap: &weightCap})
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	mid := New("p1", "mid", graph.Options{})
	mid.UpdatedAt = time.Now().Add(-time.Hour)
	recent := New("p2", "recent", graph.Options{Seed: 3})
	recent.Update(wsm.Stats{Finished: true}, wsm.Solution{
		Assignments:   []wsm.Assignment{{Pattern: 1, Target: 20}},
		ScalarProduct: 5,
		Complete:      true,
	})

	for _, r := range []*Run{old, mid, recent} {
		if err := store.Put(ctx, r); err != nil {
			t.Fatalf("Put(%s): %v", r.Name, err)
		}
	}

	got, err := store.Get(ctx, recent.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Solution.Assignments[0].Target != 20 || got.Status != StatusFinished || got.Options.Seed != 3 {
		t.Errorf("Get returned %+v", got)
	}
	got, _ = store.Get(ctx, old.ID)
	if got.Options.WeightCap == nil || *got.Options.WeightCap != 40 {
		t.Errorf("weight cap lost: %+v", got.Options)
	}

	list, err := store.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != recent.ID || list[2].ID != old.ID {
		t.Errorf("List order = %v", names(list))
	}

	list, _ = store.List(ctx, ListOptions{ProblemHash: "p1", Limit: 1})
	if len(list) != 1 || list[0].ID != mid.ID {
		t.Errorf("filtered List = %v", names(list))
	}

	removed, err := store.Cleanup(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup removed %d, want 1", removed)
	}
	if _, err := store.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("old run should be gone: %v", err)
	}

	if err := store.Delete(ctx, mid.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, mid.ID); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	list, _ = store.List(ctx, ListOptions{})
	if len(list) != 1 {
		t.Errorf("after Delete: %v", names(list))
	}
}

func names(runs []*Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Name
	}
	return out
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Store{Backend: config.StoreFile, Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(file) returned %T", s)
	}
	s.Close()

	if _, err := Open(ctx, config.Store{Backend: "sqlite"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

package persist

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/graphitebrowser/graphite/schema"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("expected empty load, ok=%v err=%v", ok, err)
	}
	snapshot := OrgSnapshot{
		ActiveRealm: "r1",
		Realms:      []schema.Realm{{ID: "r1", Name: "Personal", Order: 0}},
		Docks:       []schema.Dock{{ID: "d1", Name: "Work", RealmID: "r1", Order: 0}},
		Placements:  []schema.Placement{{TabID: "t1", RealmID: "r1", DockID: "d1", Order: 0, Pinned: true, LastURL: "https://example.com"}},
	}
	if err := store.Save(snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.ActiveRealm != "r1" || len(loaded.Realms) != 1 || len(loaded.Docks) != 1 || len(loaded.Placements) != 1 {
		t.Fatalf("unexpected snapshot %+v", loaded)
	}
	if !loaded.Placements[0].Pinned || loaded.Placements[0].LastURL != "https://example.com" {
		t.Fatalf("placement fields lost: %+v", loaded.Placements[0])
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { fires.Add(1) })
	for i := 0; i < 10; i++ {
		d.Trigger()
	}
	time.Sleep(80 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Fatalf("expected 1 fire, got %d", got)
	}
	d.Trigger()
	d.Flush()
	if got := fires.Load(); got != 2 {
		t.Fatalf("expected flush fire, got %d", got)
	}
	d.Close()
	d.Trigger()
	time.Sleep(40 * time.Millisecond)
	if got := fires.Load(); got != 2 {
		t.Fatalf("expected no fire after close, got %d", got)
	}
}

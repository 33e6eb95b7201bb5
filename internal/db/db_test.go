package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *KVStore {
	t.Helper()
	gdb, err := Open(filepath.Join(t.TempDir(), "data", "pulse.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { Close(gdb) })
	return NewKVStore(gdb)
}

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t)

	if _, err := kv.Load(ctx, "tasks"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := kv.Save(ctx, "tasks", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := kv.Save(ctx, "tasks", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := kv.Load(ctx, "tasks")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("Expected overwritten value, got %s", got)
	}
}

func TestDocument(t *testing.T) {
	ctx := context.Background()

	type doc struct {
		Names []string `json:"names"`
	}

	for name, kv := range map[string]KV{"sqlite": openTestDB(t), "memory": NewMemoryKV()} {
		t.Run(name, func(t *testing.T) {
			d := NewDocument[doc](kv, "names")
			if _, found, err := d.Load(ctx); err != nil || found {
				t.Fatalf("Expected empty document, got found=%v err=%v", found, err)
			}
			if err := d.Save(ctx, doc{Names: []string{"a", "b"}}); err != nil {
				t.Fatal(err)
			}
			v, found, err := d.Load(ctx)
			if err != nil || !found {
				t.Fatalf("Expected document, got found=%v err=%v", found, err)
			}
			if len(v.Names) != 2 || v.Names[1] != "b" {
				t.Errorf("Unexpected document %+v", v)
			}
		})
	}

	// a nil KV keeps nothing
	d := NewDocument[doc](nil, "names")
	if err := d.Save(ctx, doc{Names: []string{"x"}}); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := d.Load(ctx); found {
		t.Error("Expected nothing persisted without a KV")
	}
}

func TestDocumentCorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	kv.Save(ctx, "broken", []byte("{"))

	if _, _, err := NewDocument[map[string]int](kv, "broken").Load(ctx); err == nil {
		t.Error("Expected decode error")
	}
}

func TestClone(t *testing.T) {
	orig := map[string][]int{"a": {1, 2}}
	c, err := Clone(orig)
	if err != nil {
		t.Fatal(err)
	}
	c["a"][0] = 99
	if orig["a"][0] != 1 {
		t.Error("Expected clone to be independent of the original")
	}
}

func TestCountEventsOnDate(t *testing.T) {
	ctx := context.Background()
	gdb, err := Open(filepath.Join(t.TempDir(), "pulse.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer Close(gdb)
	events := NewEventStore(gdb)

	loc := time.FixedZone("UTC+2", 2*60*60)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, loc)
	for _, at := range []time.Time{
		day.Add(30 * time.Minute),
		day.Add(23*time.Hour + 59*time.Minute),
		day.Add(-time.Minute),
		day.Add(24 * time.Hour),
	} {
		if _, err := events.CreateEvent(ctx, "meeting", at); err != nil {
			t.Fatal(err)
		}
	}

	n, err := events.CountEventsOnDate(ctx, day.Add(12*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Expected 2 events, got %d", n)
	}

	list, _ := events.EventsOnDate(ctx, day)
	if len(list) != 2 || !list[0].StartsAt.Before(list[1].StartsAt) {
		t.Errorf("Expected 2 ordered events, got %+v", list)
	}

	if _, err := events.CreateEvent(ctx, "  ", day); err == nil {
		t.Error("Expected empty title to be rejected")
	}
}

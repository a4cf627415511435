package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestSQLiteSlot verifies Get/Put/Delete against a fresh database file,
// including ErrSlotEmpty for absent keys.
func TestSQLiteSlot(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "state")

	slot, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer slot.Close()

	if _, err := os.Stat(filepath.Join(dir, SQLiteFile)); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	if _, err := slot.Get(ctx, "k"); err != ErrSlotEmpty {
		t.Fatalf("Get on empty slot: err = %v, want ErrSlotEmpty", err)
	}

	if err := slot.Put(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := slot.Put(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err := slot.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("Get = %q, want %q", got, "two")
	}

	if err := slot.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := slot.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
	if _, err := slot.Get(ctx, "k"); err != ErrSlotEmpty {
		t.Errorf("Get after delete: err = %v, want ErrSlotEmpty", err)
	}
}

// TestMemorySlotCopies verifies callers cannot mutate stored bytes.
func TestMemorySlotCopies(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()

	in := []byte("abc")
	if err := slot.Put(ctx, "k", in); err != nil {
		t.Fatal(err)
	}
	in[0] = 'x'

	out, err := slot.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	out[1] = 'y'

	again, _ := slot.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value = %q, want %q", again, "abc")
	}
}

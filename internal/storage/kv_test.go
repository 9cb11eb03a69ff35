package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, quota int64) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db, quota)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) ok=%v err=%v, want false/nil", ok, err)
	}

	if err := s.Set(ctx, "habitquest_data", `{"a":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "habitquest_data", `{"a":2}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, ok, err := s.Get(ctx, "habitquest_data")
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if got != `{"a":2}` {
		t.Fatalf("Get=%q, want overwritten value", got)
	}

	// Binary values (CBOR) survive untouched.
	bin := string([]byte{0xa1, 0x00, 0xff, 0xfe})
	if err := s.Set(ctx, "habitquest_activity", bin); err != nil {
		t.Fatalf("Set binary: %v", err)
	}
	got, _, _ = s.Get(ctx, "habitquest_activity")
	if got != bin {
		t.Fatalf("binary value mangled: %x", got)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "habitquest_activity" || keys[1] != "habitquest_data" {
		t.Fatalf("Keys=%v", keys)
	}

	if err := s.Delete(ctx, "habitquest_data"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "habitquest_data"); ok {
		t.Fatalf("key still present after Delete")
	}
}

func TestSQLiteStoreQuota(t *testing.T) {
	s := newTestStore(t, 32)
	ctx := context.Background()

	if err := s.Set(ctx, "k", "0123456789"); err != nil {
		t.Fatalf("Set within quota: %v", err)
	}
	err := s.Set(ctx, "other", "0123456789012345678901234567")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Set over quota err=%v, want ErrQuotaExceeded", err)
	}
	// Replacing an existing key only counts the new value.
	if err := s.Set(ctx, "k", "01234567890123456789012345"); err != nil {
		t.Fatalf("overwrite within quota: %v", err)
	}
	used, err := s.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if used != 27 {
		t.Fatalf("Usage=%d, want 27", used)
	}
}

func TestMemoryStoreQuotaAndFailures(t *testing.T) {
	m := NewMemoryStore(10)
	ctx := context.Background()

	if err := m.Set(ctx, "a", "12345"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "b", "123456"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err=%v, want ErrQuotaExceeded", err)
	}
	boom := errors.New("disk on fire")
	m.FailSet = func(string) error { return boom }
	if err := m.Set(ctx, "a", "1"); !errors.Is(err, boom) {
		t.Fatalf("err=%v, want injected failure", err)
	}
	if m.Writes("a") != 1 {
		t.Fatalf("Writes(a)=%d, want 1", m.Writes("a"))
	}
}

package badger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/vecvstext/internal/db"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStore_SetGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("expected v1, got %q", got)
	}

	if err := s.SetWithTTL(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get(ctx, "k")
	if string(got) != "v2" {
		t.Errorf("expected v2 after overwrite, got %q", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openMemory(t)
	_, err := s.Get(context.Background(), "absent")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestStore_Expiry(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	// badger TTLs have one-second resolution
	if err := s.SetWithTTL(ctx, "short", []byte("x"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(2100 * time.Millisecond)

	if _, err := s.Get(ctx, "short"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected expired key to be missing, got %v", err)
	}
}

func TestStore_Del(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_ = s.SetWithTTL(ctx, "k", []byte("v"), 0)
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected key gone, got %v", err)
	}
	if err := s.Del(ctx, "never-set"); err != nil {
		t.Fatalf("deleting a missing key should succeed, got %v", err)
	}
}

func TestStore_PingAfterClose(t *testing.T) {
	s, err := Open("", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping open store: %v", err)
	}
	s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error after close")
	}
}

func TestOpen_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	s, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("open on disk: %v", err)
	}
	ctx := context.Background()
	if err := s.SetWithTTL(ctx, "k", []byte("persisted"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	s2, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, "k")
	if err != nil || string(got) != "persisted" {
		t.Fatalf("expected persisted value, got %q, %v", got, err)
	}
}

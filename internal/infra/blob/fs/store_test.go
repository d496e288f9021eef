package fs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sessioncore/internal/blob/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	payload := []byte("session_id: remy_20230622\n")
	info, err := store.Put(ctx, "exports/20230622_remy.yml", bytes.NewReader(payload), core.PutOptions{
		ContentType: "application/x-yaml",
		Metadata:    map[string]string{"day_id": "id-002"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "exports/20230622_remy.yml")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch: %q", data)
	}
	if got.ContentType != "application/x-yaml" || got.Metadata["day_id"] != "id-002" {
		t.Fatalf("sidecar metadata lost: %+v", got)
	}
	if got.ETag != info.ETag {
		t.Fatalf("etag drifted between put and get")
	}
}

func TestStorePutIsCreateOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "k.yml", bytes.NewReader([]byte("a")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k.yml", bytes.NewReader([]byte("b")), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put error")
	}
}

func TestStoreKeySanitization(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape.yml", "/abs.yml", "a/../../b"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err == nil {
			t.Fatalf("expected rejection of key %q", key)
		}
	}
}

func TestStoreDeleteRemovesSidecar(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "exports/a.yml", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := store.Delete(ctx, "exports/a.yml")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(store.root, "exports", "a.yml.meta")); !os.IsNotExist(err) {
		t.Fatalf("sidecar survived delete: %v", err)
	}
	ok, err = store.Delete(ctx, "exports/a.yml")
	if err != nil || ok {
		t.Fatalf("expected second delete to report false, got %v %v", ok, err)
	}
}

func TestStoreListPrefixAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"exports/b.yml", "exports/a.yml", "scratch/c.yml"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("v")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	list, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "exports/a.yml" || list[1].Key != "exports/b.yml" {
		t.Fatalf("unexpected listing: %+v", list)
	}
}

func TestStorePresignURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	u, err := store.PresignURL(ctx, "exports/a.yml", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(u, "http://local.blob/") {
		t.Fatalf("unexpected url %q", u)
	}
	if _, err := store.PresignURL(ctx, "exports/a.yml", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("expected unsupported for PUT, got %v", err)
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("expected fs driver")
	}
}

package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/docuflow/internal/catalog"
	"github.com/starford/docuflow/internal/models"
	"github.com/starford/docuflow/internal/storage"
	"github.com/starford/docuflow/internal/testutil"
)

func fsConfig(t *testing.T) (*Config, *storage.FS) {
	t.Helper()
	dir, kv := testutil.TestFS(t)
	cfg := NewDefaultConfig()
	cfg.Storage.Path = dir
	cfg.SQLite.Path = filepath.Join(dir, "docuflow.db")
	return cfg, kv
}

func seed(t *testing.T, kv storage.Provider) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(kv)
	if err != nil {
		t.Fatal(err)
	}
	doc := models.Document{ID: "abc123xyz", Name: "Lease.pdf", CategoryID: "cat-1",
		Type: "pdf", Size: "1.2 MB", Date: "2024-03-05T09:30:00.000Z"}
	if err := store.AddDocument(doc); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config should fail")
	}
}

func TestExport(t *testing.T) {
	cfg, kv := fsConfig(t)
	seed(t, kv)

	var out bytes.Buffer
	if err := Export(context.Background(), &out, WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got map[string][]map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("export is not JSON: %v\n%s", err, out.String())
	}
	docs := got[catalog.DocumentsKey]
	if len(docs) != 1 || docs[0]["name"] != "Lease.pdf" {
		t.Errorf("documents = %v", docs)
	}
	// Categories were never written, so they export as null.
	if cats, ok := got[catalog.CategoriesKey]; !ok || cats != nil {
		t.Errorf("categories = %v, want null", cats)
	}
}

func TestExport_SQLite(t *testing.T) {
	cfg, _ := fsConfig(t)
	cfg.Storage.Driver = storage.DriverSQLite

	db, err := storage.OpenSQLite(cfg.SQLite.Path)
	if err != nil {
		t.Fatal(err)
	}
	seed(t, db)
	db.Close()

	var out bytes.Buffer
	if err := Export(context.Background(), &out, WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("abc123xyz")) {
		t.Errorf("export missing document: %s", out.String())
	}
}

func TestReset(t *testing.T) {
	cfg, kv := fsConfig(t)
	store := seed(t, kv)
	if err := store.AddCategory(models.Category{ID: "x", Name: "Travel", Color: "#3b82f6"}); err != nil {
		t.Fatal(err)
	}

	if err := Reset(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	keys, err := kv.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("keys after reset = %v", keys)
	}

	fresh, err := catalog.Open(kv)
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh.Documents()) != 0 || len(fresh.Categories()) != 4 {
		t.Errorf("after reset: %d documents, %d categories", len(fresh.Documents()), len(fresh.Categories()))
	}
}

func TestOpenCatalog_MalformedIsFatal(t *testing.T) {
	kv := storage.NewMemory()
	if err := kv.Set(catalog.DocumentsKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if _, err := openCatalog(kv); err == nil {
		t.Fatal("malformed documents should fail to load")
	}
}

func TestWatchCatalog_ReloadsOnExternalEdit(t *testing.T) {
	dir, kv := testutil.TestFS(t)

	reloaded := make(chan struct{}, 4)
	store, err := catalog.Open(kv, catalog.WithObserver(func(c catalog.Change) {
		if c.Kind == catalog.Reloaded {
			reloaded <- struct{}{}
		}
	}))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchCatalog(ctx, kv, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	external := `[{"id":"ext000001","name":"From elsewhere","categoryId":"cat-2","type":"pdf","size":"1.2 MB","date":"2024-01-01T00:00:00.000Z"}]`
	if err := os.WriteFile(filepath.Join(dir, catalog.DocumentsKey+".json"), []byte(external), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("catalog not reloaded after external edit")
	}
	docs := store.Documents()
	if len(docs) != 1 || docs[0].Name != "From elsewhere" {
		t.Errorf("documents = %+v", docs)
	}
}

func TestWatchCatalog_NoopForMemory(t *testing.T) {
	kv := storage.NewMemory()
	store, err := catalog.Open(kv)
	if err != nil {
		t.Fatal(err)
	}
	if err := watchCatalog(context.Background(), kv, store, slog.Default()); err != nil {
		t.Fatalf("watchCatalog(memory) = %v", err)
	}
}

package testsupport

import (
	"context"
	"testing"

	"github.com/kagelump/vlog/internal/catalog"
	"github.com/kagelump/vlog/internal/config"
)

// MustOpenCatalog opens a catalog for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		cat.Close()
	})
	return cat
}

// SeedRecord upserts a minimal record for tests.
func SeedRecord(t testing.TB, cat *catalog.Catalog, filename string) {
	t.Helper()

	if err := cat.Upsert(context.Background(), &catalog.Record{Filename: filename, Keep: true}); err != nil {
		t.Fatalf("catalog.Upsert %s: %v", filename, err)
	}
}

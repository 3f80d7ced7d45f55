package main

import (
	"path/filepath"
	"testing"

	"github.com/kagelump/vlog/internal/testsupport"
)

func TestCatalogListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedRecord(t, env.store, "clip.mp4")

	out, _, err := runCLI(t, []string{"catalog", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "clip.mp4")

	out, _, err = runCLI(t, []string{"catalog", "show", "clip.mp4"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("catalog show: %v", err)
	}
	requireContains(t, out, "Filename:")
	requireContains(t, out, "clip.mp4")

	_, _, err = runCLI(t, []string{"catalog", "show", "missing.mp4"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown filename")
	}
}

func TestCatalogKeepAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedRecord(t, env.store, "clip.mp4")

	out, _, err := runCLI(t, []string{"catalog", "keep", "clip.mp4", "--discard"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("catalog keep: %v", err)
	}
	requireContains(t, out, "keep=no")

	out, _, err = runCLI(t, []string{"catalog", "remove", "clip.mp4"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("catalog remove: %v", err)
	}
	requireContains(t, out, "Removed clip.mp4")

	out, _, err = runCLI(t, []string{"catalog", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "Catalog is empty")
}

func TestCatalogStats(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedRecord(t, env.store, "a.mp4")
	testsupport.SeedRecord(t, env.store, "b.mp4")

	out, _, err := runCLI(t, []string{"catalog", "stats"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("catalog stats: %v", err)
	}
	requireContains(t, out, "Clips")
	requireContains(t, out, "2")
}

func TestCatalogFallsBackToDirectStoreWhenDaemonOffline(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedRecord(t, env.store, "offline.mp4")

	missingSocket := filepath.Join(t.TempDir(), "missing.sock")
	out, _, err := runCLI(t, []string{"catalog", "list"}, missingSocket, env.configPath)
	if err != nil {
		t.Fatalf("catalog list offline: %v", err)
	}
	requireContains(t, out, "offline.mp4")
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10); got != "short" {
		t.Fatalf("expected unchanged text, got %q", got)
	}
	if got := truncateText("a very long description of a clip", 10); got != "a very ..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

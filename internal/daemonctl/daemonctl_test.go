package daemonctl_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kagelump/vlog/internal/catalog"
	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/daemon"
	"github.com/kagelump/vlog/internal/daemonctl"
	"github.com/kagelump/vlog/internal/ingest"
	"github.com/kagelump/vlog/internal/ipc"
	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/testsupport"
)

func startServer(t *testing.T) (string, *config.Config, *catalog.Catalog) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}
	cat := testsupport.MustOpenCatalog(t, cfg)

	svc := ingest.NewService(cfg, cat, func(context.Context, ingest.Batch) {}, logging.NewNop())
	d, err := daemon.New(cfg, cat, svc, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	socket := filepath.Join(t.TempDir(), "vlogd.sock")
	server, err := ipc.NewServer(context.Background(), socket, d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)
	return socket, cfg, cat
}

func TestProcessInfoMissingSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	alive, pid, err := daemonctl.ProcessInfo(socket)
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if alive || pid != 0 {
		t.Fatalf("expected no daemon, got alive=%v pid=%d", alive, pid)
	}
}

func TestProcessInfoLiveDaemon(t *testing.T) {
	socket, _, _ := startServer(t)
	alive, _, err := daemonctl.ProcessInfo(socket)
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if !alive {
		t.Fatal("expected daemon to be reachable")
	}
}

func TestEnsureStartedOverLiveSocket(t *testing.T) {
	socket, _, _ := startServer(t)

	result, err := daemonctl.EnsureStarted(socket, "vlogd-not-used", "", time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.Launched {
		t.Fatal("daemon was already reachable, nothing should launch")
	}
	if result.State != daemonctl.StartStateStarted {
		t.Fatalf("expected started state, got %s", result.State)
	}

	again, err := daemonctl.EnsureStarted(socket, "vlogd-not-used", "", time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted again: %v", err)
	}
	if again.State != daemonctl.StartStateAlreadyRunning {
		t.Fatalf("expected already-running state, got %s", again.State)
	}
}

func TestWaitForShutdownMissingSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "gone.sock")
	if err := daemonctl.WaitForShutdown(socket, 500*time.Millisecond); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "gone.sock")
	_, err := daemonctl.StopAndTerminate(socket, 100*time.Millisecond)
	if err != daemonctl.ErrDaemonNotRunning {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestBuildSnapshotOfflineFallsBackToCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cat := testsupport.MustOpenCatalog(t, cfg)
	testsupport.SeedRecord(t, cat, "clip.mp4")

	socket := filepath.Join(t.TempDir(), "offline.sock")
	snapshot, err := daemonctl.BuildSnapshot(context.Background(), socket, cfg)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snapshot.Online {
		t.Fatal("daemon should be offline")
	}
	if snapshot.Stats.Total != 1 {
		t.Fatalf("expected 1 cataloged clip, got %d", snapshot.Stats.Total)
	}
}

func TestBuildSnapshotLiveDaemon(t *testing.T) {
	socket, cfg, cat := startServer(t)
	testsupport.SeedRecord(t, cat, "clip.mp4")

	snapshot, err := daemonctl.BuildSnapshot(context.Background(), socket, cfg)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if !snapshot.Online {
		t.Fatal("expected daemon to be online")
	}
	if snapshot.Stats.Total != 1 {
		t.Fatalf("expected 1 cataloged clip, got %d", snapshot.Stats.Total)
	}
}

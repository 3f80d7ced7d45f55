package daemon

import (
	"context"
	"os"
	"testing"

	"github.com/kagelump/vlog/internal/ingest"
	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/testsupport"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}
	cat := testsupport.MustOpenCatalog(t, cfg)

	svc := ingest.NewService(cfg, cat, func(context.Context, ingest.Batch) {}, logging.NewNop())
	d, err := New(cfg, cat, svc, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newTestDaemon(t)

	if err := d.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status(context.Background())
	if !status.Running || !status.Ingest.Running {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid: %d", status.PID)
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("daemon still running after Stop")
	}
}

func TestDaemonStartTwiceFails(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(context.Background(), ""); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}
	cat := testsupport.MustOpenCatalog(t, cfg)

	first, err := New(cfg, cat,
		ingest.NewService(cfg, cat, func(context.Context, ingest.Batch) {}, logging.NewNop()),
		nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New first: %v", err)
	}
	defer first.Stop()
	if err := first.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start first: %v", err)
	}

	second, err := New(cfg, cat,
		ingest.NewService(cfg, cat, func(context.Context, ingest.Batch) {}, logging.NewNop()),
		nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	if err := second.Start(context.Background(), ""); err == nil {
		second.Stop()
		t.Fatal("expected lock to exclude second instance")
	}
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()
	d.Stop()
}

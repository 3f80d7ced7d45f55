package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kagelump/vlog/internal/catalog"
	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/daemon"
	"github.com/kagelump/vlog/internal/describe"
	"github.com/kagelump/vlog/internal/ingest"
	"github.com/kagelump/vlog/internal/ipc"
	"github.com/kagelump/vlog/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	describer := describe.NewClient(cfg.Describe)
	runner := buildRunner(cfg, store, describer, logger)

	svc := ingest.NewService(cfg, store, func(ctx context.Context, batch ingest.Batch) {
		runner.ProcessBatch(ctx, batch.ID, batch.Paths())
	}, logger)

	d, err := daemon.New(cfg, store, svc, describer, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	socketPath := buildSocketPath(cfg)
	ipcServer, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx, ""); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-ctx.Done()
	logger.Info("vlogd shutting down")
	d.Stop()
}

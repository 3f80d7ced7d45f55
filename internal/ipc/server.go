package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"github.com/kagelump/vlog/internal/api"
	"github.com/kagelump/vlog/internal/daemon"
	"github.com/kagelump/vlog/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Vlog", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path), logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(req StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx, req.Dir); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockPath
	resp.CatalogPath = status.CatalogPath
	resp.Ingest = api.IngestStatus{
		Running:      status.Ingest.Running,
		WatchDir:     status.Ingest.WatchDir,
		Queued:       status.Ingest.Queued,
		WorkerActive: status.Ingest.WorkerActive,
		BatchSize:    status.Ingest.BatchSize,
		BatchTimeout: status.Ingest.BatchTimeout,
	}
	resp.Describe = api.DescribeHealth{
		Status:      status.Describe.Status,
		ModelLoaded: status.Describe.ModelLoaded,
		ModelName:   status.Describe.ModelName,
		Error:       status.DescribeErr,
	}
	return nil
}

func (s *service) CatalogList(_ CatalogListRequest, resp *CatalogListResponse) error {
	records, err := s.daemon.ListCatalog(s.ctx)
	if err != nil {
		return err
	}
	resp.Records = api.FromCatalogRecords(records)
	return nil
}

func (s *service) CatalogRemove(req CatalogRemoveRequest, resp *CatalogRemoveResponse) error {
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return errors.New("filename required")
	}
	removed, err := s.daemon.RemoveRecord(s.ctx, filename)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) CatalogKeep(req CatalogKeepRequest, resp *CatalogKeepResponse) error {
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return errors.New("filename required")
	}
	updated, err := s.daemon.SetKeep(s.ctx, filename, req.Keep)
	if err != nil {
		return err
	}
	resp.Updated = updated
	return nil
}

func (s *service) CatalogStats(_ CatalogStatsRequest, resp *CatalogStatsResponse) error {
	stats, err := s.daemon.CatalogSummary(s.ctx)
	if err != nil {
		return err
	}
	resp.Stats = api.CatalogStats{
		Total:        stats.Total,
		Kept:         stats.Kept,
		TotalSeconds: stats.TotalSeconds,
	}
	return nil
}

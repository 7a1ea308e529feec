package sqlwire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/sql/executor"
)

type ServerConfig struct {
	Addr string
	// SharedStore makes every connection run against one store. Otherwise
	// each connection gets a private store that lives as long as it does.
	SharedStore bool
	// StmtCacheSize is passed to every executor the server creates.
	StmtCacheSize int
	Logger        *slog.Logger
}

type Server struct {
	cfg    ServerConfig
	logger *slog.Logger
	shared *executor.Executor

	wg sync.WaitGroup
}

func NewServer(sc ServerConfig) *Server {
	logger := sc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: sc, logger: logger}
	if sc.SharedStore {
		s.shared = s.newExecutor(logger)
	}
	return s
}

// Run listens on sc.Addr and serves until ctx is cancelled.
func Run(ctx context.Context, sc ServerConfig) error {
	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return NewServer(sc).Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes ln
// and waits for the open sessions to end.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer func() { _ = ln.Close() }()

	s.logger.Info("memsql tcp server listening",
		"addr", ln.Addr().String(), "shared_store", s.cfg.SharedStore)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.logger.Warn("accept", "err", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	// No global deadline; the client sets per-request ones.
	_ = conn.SetDeadline(time.Time{})

	// unblock Recv on shutdown
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	log := s.logger.With("remote", conn.RemoteAddr().String())
	log.Debug("session opened")
	defer log.Debug("session closed")

	ex := s.sessionExecutor(log)
	wire := NewConn(conn)

	for {
		var req ExecuteRequest
		if err := wire.Recv(&req); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				log.Warn("read frame", "err", err)
			}
			return
		}

		resp := ExecuteResponse{ID: req.ID}
		res, err := ex.ExecSQL(req.SQL)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Result = res
		}

		if err := wire.Send(resp); err != nil {
			log.Warn("write frame", "id", req.ID, "err", err)
			return
		}
	}
}

// sessionExecutor returns the shared executor or a fresh store per
// connection, so tables created in one session are invisible to others.
func (s *Server) sessionExecutor(log *slog.Logger) *executor.Executor {
	if s.shared != nil {
		return s.shared
	}
	return s.newExecutor(log)
}

func (s *Server) newExecutor(log *slog.Logger) *executor.Executor {
	return executor.NewExecutor(engine.NewStore(), log, executor.WithStatementCache(s.cfg.StmtCacheSize))
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	grpchandler "github.com/ogurasousui/employee-directory/internal/adapters/grpc/handler"
	"github.com/ogurasousui/employee-directory/internal/core/health"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultShutdownTimeout = 15 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Options はサーバーの待ち受けアドレスと停止時の猶予です。GRPCAddr が空の場合 gRPC は起動しません。
type Options struct {
	HTTPAddr        string
	GRPCAddr        string
	ShutdownTimeout time.Duration
}

// Server は HTTP サーバーと gRPC ヘルスチェックサーバーのライフサイクルを管理します。
type Server struct {
	opts       Options
	logger     *zap.Logger
	httpServer *http.Server
	grpcServer *grpc.Server

	httpLis net.Listener
	grpcLis net.Listener
}

// New は HTTP ハンドラと grpc.health.v1 を公開するサーバーを構築します。
func New(opts Options, handler http.Handler, checker health.Checker, logger *zap.Logger, grpcOpts ...grpc.ServerOption) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var grpcServer *grpc.Server
	if opts.GRPCAddr != "" {
		grpcServer = grpc.NewServer(grpcOpts...)
		healthpb.RegisterHealthServer(grpcServer, grpchandler.NewHealthHandler(checker))
	}

	return &Server{
		opts:   opts,
		logger: logger,
		httpServer: &http.Server{
			Addr:              opts.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		grpcServer: grpcServer,
	}
}

// Listen は待ち受けソケットを確保します。Run より前に呼ぶとアドレスを事前に取得できます。
func (s *Server) Listen() error {
	if s.httpLis == nil {
		lis, err := net.Listen("tcp", s.opts.HTTPAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.opts.HTTPAddr, err)
		}
		s.httpLis = lis
	}
	if s.grpcServer != nil && s.grpcLis == nil {
		lis, err := net.Listen("tcp", s.opts.GRPCAddr)
		if err != nil {
			_ = s.httpLis.Close()
			s.httpLis = nil
			return fmt.Errorf("listen on %s: %w", s.opts.GRPCAddr, err)
		}
		s.grpcLis = lis
	}
	return nil
}

// HTTPAddr は HTTP の待ち受けアドレスを返します。Listen 前は nil です。
func (s *Server) HTTPAddr() net.Addr {
	if s.httpLis == nil {
		return nil
	}
	return s.httpLis.Addr()
}

// GRPCAddr は gRPC の待ち受けアドレスを返します。Listen 前または gRPC 無効時は nil です。
func (s *Server) GRPCAddr() net.Addr {
	if s.grpcLis == nil {
		return nil
	}
	return s.grpcLis.Addr()
}

// Run はサーバーを起動し、コンテキストがキャンセルされるか一方のサーバーが失敗すると両方を停止します。
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", s.httpLis.Addr().String()))
		if err := s.httpServer.Serve(s.httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	if s.grpcServer != nil {
		g.Go(func() error {
			s.logger.Info("grpc server listening", zap.String("addr", s.grpcLis.Addr().String()))
			if err := s.grpcServer.Serve(s.grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve gRPC: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()

		s.stopGRPC(shutdownCtx)
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// stopGRPC は GracefulStop を試み、猶予を過ぎた場合は強制停止します。
func (s *Server) stopGRPC(ctx context.Context) {
	if s.grpcServer == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("grpc graceful stop timed out")
		s.grpcServer.Stop()
		<-done
	}
}

// Package grpc serves the standard gRPC health service for the vault
// server. Dependencies are probed periodically and their state is reported
// under their own service names.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dmitrijs2005/memoire/internal/logging"
)

type GRPCServer struct {
	address  string
	logger   logging.Logger
	health   *health.Server
	probes   []Probe
	interval time.Duration
}

func NewGRPCServer(address string, l logging.Logger, interval time.Duration, probes ...Probe) *GRPCServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, p := range probes {
		hs.SetServingStatus(p.Name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		health:   hs,
		probes:   probes,
		interval: interval,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	go s.probeLoop(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

func (s *GRPCServer) probeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.probeOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

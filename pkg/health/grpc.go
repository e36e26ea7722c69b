package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lewisedginton/tile_relay/pkg/logger"
)

// GRPCServer exposes grpc.health.v1.Health for orchestrators that check liveness over
// gRPC. The overall status ("" service) is SERVING while the listener runs and
// NOT_SERVING once Shutdown has been called.
type GRPCServer struct {
	server       *grpc.Server
	healthServer *health.Server
	log          logger.Logger
	stopped      atomic.Bool
}

// NewGRPCServer creates a gRPC server with the health service registered. The
// status starts as NOT_SERVING until Listen or Serve is called.
func NewGRPCServer(l logger.Logger) *GRPCServer {
	s := &GRPCServer{
		server:       grpc.NewServer(),
		healthServer: health.NewServer(),
		log:          l,
	}
	grpc_health_v1.RegisterHealthServer(s.server, s.healthServer)
	s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

// Listen binds the given port and serves in the background. The returned
// channel receives a terminal serve error, if any, and is closed when serving
// stops.
func (s *GRPCServer) Listen(port int) chan error {
	errChan := make(chan error, 1)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		errChan <- fmt.Errorf("grpc health listen: %w", err)
		close(errChan)
		return errChan
	}

	s.log.Info("Starting gRPC health listener", logger.IntField("port", port))
	go func() {
		defer close(errChan)
		if err := s.Serve(lis); err != nil {
			errChan <- err
		}
	}()
	return errChan
}

// Serve marks the service SERVING and blocks serving on lis until Shutdown.
func (s *GRPCServer) Serve(lis net.Listener) error {
	if !s.stopped.Load() {
		s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	}
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc health serve: %w", err)
	}
	return nil
}

// Shutdown flips every service to NOT_SERVING and stops the server once
// in-flight RPCs complete, or immediately when ctx ends first. Watch streams
// never complete on their own, so callers should pass a bounded ctx. It is safe
// to call more than once.
func (s *GRPCServer) Shutdown(ctx context.Context) {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.healthServer.Shutdown()
	s.log.Info("Stopping gRPC health listener")

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
		<-done
	}
}

package health

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// FailureThreshold is how many consecutive failed ticks mark a loop as
// not serving.
const FailureThreshold = 3

const servicePrefix = "kiosk."

// Server exposes the kiosk's background loops through the standard gRPC
// health protocol. The overall status follows the loops listed as critical.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	critical   map[string]bool

	mu       sync.Mutex
	failures map[string]int
}

func NewServer(critical ...string) *Server {
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	s := &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		critical:   map[string]bool{},
		failures:   map[string]int{},
	}
	for _, loop := range critical {
		s.critical[loop] = true
	}
	return s
}

func (s *Server) TickSucceeded(loop string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[loop] = 0
	s.health.SetServingStatus(servicePrefix+loop, grpc_health_v1.HealthCheckResponse_SERVING)
	s.updateOverall()
}

func (s *Server) TickFailed(loop string, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[loop]++
	if s.failures[loop] < FailureThreshold {
		return
	}
	if s.failures[loop] == FailureThreshold {
		log.Printf("loop %s failed %d ticks in a row", loop, FailureThreshold)
	}
	s.health.SetServingStatus(servicePrefix+loop, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	s.updateOverall()
}

func (s *Server) updateOverall() {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	for loop := range s.critical {
		if s.failures[loop] >= FailureThreshold {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			break
		}
	}
	s.health.SetServingStatus("", status)
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	log.Printf("health server listening at %v", lis.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Service returns the health service name used for loop.
func Service(loop string) string {
	return servicePrefix + loop
}

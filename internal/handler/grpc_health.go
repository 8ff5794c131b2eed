package handler

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// MonitorServiceName is the health service name tracking the safety loop.
const MonitorServiceName = "boatsafety.SafetyMonitor"

// GRPCHealth exposes grpc.health.v1 for the safety monitor.
type GRPCHealth struct {
	server *grpc.Server
	health *health.Server
	logger *logrus.Logger
}

// NewGRPCHealth creates the gRPC server with health and reflection
// registered. Everything starts NOT_SERVING.
func NewGRPCHealth(logger *logrus.Logger) *GRPCHealth {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	g := &GRPCHealth{server: srv, health: hs, logger: logger}
	g.SetServing(false)
	return g
}

// SetServing flips both the overall and the monitor service status.
func (g *GRPCHealth) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(MonitorServiceName, status)
}

// Track reports SERVING until done is closed or ctx ends.
func (g *GRPCHealth) Track(ctx context.Context, done <-chan struct{}) {
	g.SetServing(true)
	select {
	case <-done:
		g.logger.Warn("Safety monitor exited, gRPC health set to NOT_SERVING")
	case <-ctx.Done():
	}
	g.SetServing(false)
}

// Serve accepts connections on lis until Stop is called.
func (g *GRPCHealth) Serve(lis net.Listener) error {
	g.logger.Infof("gRPC health listening on %s", lis.Addr())
	if err := g.server.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains the server.
func (g *GRPCHealth) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}

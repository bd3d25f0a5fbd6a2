package grpc_server

import (
	"context"
	"net"
	"time"

	"github.com/waste3d/coursehub/internal/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health entry orchestrators probe besides the overall "" entry.
const ServiceName = "coursehub"

// HealthServer exposes grpc.health.v1 and reflection for probes.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	log    *logger.Logger
}

func NewHealthServer(log *logger.Logger) *HealthServer {
	log = log.With("service", "HealthServer")
	s := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(log)))

	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	return &HealthServer{srv: s, health: h, log: log}
}

func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	s.log.Info("gRPC health server listening", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

// Shutdown flips every entry to NOT_SERVING and drains in-flight calls.
func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func loggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("grpc call failed", "method", info.FullMethod, "duration", time.Since(start), "error", err)
		} else {
			log.Debug("grpc call", "method", info.FullMethod, "duration", time.Since(start))
		}
		return resp, err
	}
}

package rpc

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/wfunc/werewords/logger"
)

// ServiceName is the name reported by the gRPC health service.
const ServiceName = "werewords.Game"

// HealthServer serves grpc.health.v1 for load balancers and orchestrators.
type HealthServer struct {
	listener net.Listener
	grpc     *grpc.Server
	health   *health.Server
}

func NewHealthServer(addr string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewHealthServerWithListener(listener), nil
}

func NewHealthServerWithListener(listener net.Listener) *HealthServer {
	h := &HealthServer{
		listener: listener,
		grpc:     grpc.NewServer(),
		health:   health.NewServer(),
	}
	healthpb.RegisterHealthServer(h.grpc, h.health)
	h.SetServing(true)
	return h
}

// SetServing flips both the overall and the game service status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Start blocks serving until Stop.
func (h *HealthServer) Start() error {
	logger.Log.Infof("gRPC health server listening on %s", h.listener.Addr())
	if err := h.grpc.Serve(h.listener); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}

package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name the server reports readiness under.
const HealthService = "zia.Auth"

// HealthProbe asks the server's gRPC health endpoint whether it is serving.
type HealthProbe struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewHealthProbe prepares a connection to addr. No I/O happens until Check.
func NewHealthProbe(addr string, opts ...grpc.DialOption) (*HealthProbe, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("health probe: %w", err)
	}
	return &HealthProbe{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Check returns the reported serving status, e.g. "SERVING".
func (p *HealthProbe) Check(ctx context.Context) (string, error) {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: HealthService})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp.GetStatus().String(), nil
}

func (p *HealthProbe) Close() error {
	return p.conn.Close()
}

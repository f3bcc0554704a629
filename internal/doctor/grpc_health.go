package doctor

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// checkGRPCHealth dials target and asks the standard health service for
// the overall server status.
func checkGRPCHealth(ctx context.Context, target string) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return Check{Name: "transform.grpc", Pass: false, Message: fmt.Sprintf("dial %s: %v", target, err)}
	}
	defer conn.Close()

	conn.Connect()
	if err := waitForReady(ctx, conn); err != nil {
		return Check{Name: "transform.grpc", Pass: false, Message: fmt.Sprintf("connect %s: %v", target, err)}
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return Check{Name: "transform.grpc", Pass: false, Message: fmt.Sprintf("health check %s: %v", target, err)}
	}
	if status := resp.GetStatus(); status != healthpb.HealthCheckResponse_SERVING {
		return Check{Name: "transform.grpc", Pass: false, Message: fmt.Sprintf("%s reports %s", target, status)}
	}
	return Check{Name: "transform.grpc", Pass: true, Message: fmt.Sprintf("serving at %s", target)}
}

// waitForReady blocks until conn is Ready or ctx ends.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("connection shut down")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("readiness wait ended in state %s", state)
		}
	}
}

package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Probe checks one dependency. Name is the health service name it reports
// under.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

const probeTimeout = 5 * time.Second

// probeOnce runs every probe and updates the health server. The overall
// status ("") is SERVING only when every probe passes.
func (s *GRPCServer) probeOnce(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING

	for _, p := range s.probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := p.Check(pctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn(ctx, "probe failed", "service", p.Name, "error", err)
		}
		s.health.SetServingStatus(p.Name, st)
	}

	s.health.SetServingStatus("", overall)
}

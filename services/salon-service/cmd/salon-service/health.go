package main

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthService = "salon.v1.SalonService"

func watchHealth(ctx context.Context, hs *health.Server, check func(context.Context) error) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		setHealth(ctx, hs, check)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func setHealth(ctx context.Context, hs *health.Server, check func(context.Context) error) {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	status := healthpb.HealthCheckResponse_SERVING
	if err := check(checkCtx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(healthService, status)
}

package handler

import (
	"context"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/health"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName は grpc.health.v1 で問い合わせ可能なサービス名です。空文字列はサーバー全体を表します。
const ServiceName = "employee.directory.v1.EmployeeDirectory"

const watchInterval = 5 * time.Second

// HealthHandler は grpc.health.v1.Health の実装です。状態はデータベースの疎通で判定します。
type HealthHandler struct {
	checker health.Checker
	healthpb.UnimplementedHealthServer
}

// NewHealthHandler は HealthHandler を生成します。
func NewHealthHandler(checker health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Check は現在の稼働状態を返します。
func (h *HealthHandler) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if err := validateService(req.GetService()); err != nil {
		return nil, err
	}
	return &healthpb.HealthCheckResponse{Status: h.servingStatus(ctx)}, nil
}

// List は問い合わせ可能なサービスごとの状態を返します。
func (h *HealthHandler) List(ctx context.Context, _ *healthpb.HealthListRequest) (*healthpb.HealthListResponse, error) {
	st := h.servingStatus(ctx)
	return &healthpb.HealthListResponse{
		Statuses: map[string]*healthpb.HealthCheckResponse{
			"":          {Status: st},
			ServiceName: {Status: st},
		},
	}, nil
}

// Watch は状態が変化するたびに通知します。
func (h *HealthHandler) Watch(req *healthpb.HealthCheckRequest, stream healthpb.Health_WatchServer) error {
	if err := validateService(req.GetService()); err != nil {
		return err
	}

	ctx := stream.Context()
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		if st := h.servingStatus(ctx); st != last {
			if err := stream.Send(&healthpb.HealthCheckResponse{Status: st}); err != nil {
				return err
			}
			last = st
		}

		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case <-ticker.C:
		}
	}
}

func (h *HealthHandler) servingStatus(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	if h.checker.Check(ctx).Healthy() {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

func validateService(name string) error {
	if name == "" || name == ServiceName {
		return nil
	}
	return status.Errorf(codes.NotFound, "unknown service %q", name)
}

package health

import (
	"context"
	"time"
)

// Status は稼働状態です。
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Pinger はデータベースへの疎通確認を行います。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter は登録済み社員数を返します。
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Report はヘルスチェックの結果です。Error は不健全な場合のみ設定されます。
type Report struct {
	Status        Status
	Database      string
	EmployeeCount int
	Version       string
	Timestamp     time.Time
	Error         string
}

// Healthy は健全かどうかを返します。
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Checker はヘルスチェックのユースケースです。
type Checker interface {
	Check(ctx context.Context) Report
}

// Service は Checker のデフォルト実装です。
type Service struct {
	pinger  Pinger
	counter Counter
	version string
	now     func() time.Time
}

// NewService は Service を生成します。
func NewService(pinger Pinger, counter Counter, version string) *Service {
	return &Service{
		pinger:  pinger,
		counter: counter,
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Check はデータベースへの疎通と社員数の取得を試み、結果を返します。
func (s *Service) Check(ctx context.Context) Report {
	report := Report{Version: s.version, Timestamp: s.now()}

	if err := s.pinger.Ping(ctx); err != nil {
		report.Status = StatusUnhealthy
		report.Database = "disconnected"
		report.Error = err.Error()
		return report
	}

	count, err := s.counter.Count(ctx)
	if err != nil {
		report.Status = StatusUnhealthy
		report.Database = "connected"
		report.Error = err.Error()
		return report
	}

	report.Status = StatusHealthy
	report.Database = "connected"
	report.EmployeeCount = count
	return report
}

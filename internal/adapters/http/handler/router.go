package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/ogurasousui/employee-directory/internal/core/auth"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/core/health"
	"github.com/ogurasousui/employee-directory/internal/platform/metrics"
	"go.uber.org/zap"
)

// Authenticator はログインとトークン検証の抽象化です。
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*auth.Token, error)
	Verify(ctx context.Context, token string) (string, error)
}

// Dependencies は HTTP ハンドラが利用するユースケースと設定です。
type Dependencies struct {
	Employees employee.UseCase
	Queries   employee.QueryUseCase
	Auth      Authenticator
	Health    health.Checker
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	CORSOrigins        []string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

// Handler は REST API の各エンドポイントを実装します。
type Handler struct {
	employees employee.UseCase
	queries   employee.QueryUseCase
	auth      Authenticator
	health    health.Checker
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewRouter はミドルウェアとルーティングを組み立てた http.Handler を返します。
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		employees: deps.Employees,
		queries:   deps.Queries,
		auth:      deps.Auth,
		health:    deps.Health,
		metrics:   deps.Metrics,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(ClientMetadata)
	r.Use(AccessLog(logger, deps.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if deps.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(deps.RateLimitPerMinute, time.Minute))
	}
	if deps.RequestTimeout > 0 {
		r.Use(chimw.Timeout(deps.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "The requested resource was not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", h.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	requireAuth := RequireAuth(deps.Auth, logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.With(requireAuth).Get("/auth/verify", h.Verify)

		r.Get("/employees", h.ListEmployees)
		r.Get("/employees/{id}", h.GetEmployee)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/employees", h.CreateEmployee)
			r.Put("/employees/{id}", h.UpdateEmployee)
			r.Delete("/employees/{id}", h.DeleteEmployee)
			r.Get("/employees/{id}/audit", h.EmployeeAuditLog)
		})

		r.Get("/departments", h.ListDepartments)
		r.Get("/departments/{name}/employees", h.DepartmentEmployees)
		r.Get("/stats", h.Statistics)
		r.Get("/search", h.Search)
	})

	return r
}

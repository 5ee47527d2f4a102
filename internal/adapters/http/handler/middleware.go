package handler

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"
	"github.com/ogurasousui/employee-directory/internal/core/audit"
	"github.com/ogurasousui/employee-directory/internal/platform/metrics"
	"go.uber.org/zap"
)

const unknownClient = "unknown"

type clientIPKey struct{}
type userAgentKey struct{}
type subjectKey struct{}

// ClientMetadata はクライアントの IP アドレスと User-Agent をコンテキストに格納します。
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey{}, ClientIPFromRequest(r))
		ctx = context.WithValue(ctx, userAgentKey{}, r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest は X-Forwarded-For の先頭、X-Real-IP、RemoteAddr の順にクライアント IP を決定します。
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if addr := r.RemoteAddr; addr != "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return host
		}
		return addr
	}
	return unknownClient
}

// actorFromRequest は監査ログに記録する呼び出し元を組み立てます。
func actorFromRequest(r *http.Request) audit.Actor {
	ctx := r.Context()
	ip, _ := ctx.Value(clientIPKey{}).(string)
	ua, _ := ctx.Value(userAgentKey{}).(string)
	subject, _ := SubjectFrom(ctx)
	return audit.Actor{ID: subject, IPAddress: ip, UserAgent: ua}.Normalized()
}

// SubjectFrom は認証済みリクエストの subject を返します。
func SubjectFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey{}).(string)
	return v, ok && v != ""
}

// RequireAuth は Authorization: Bearer のトークンを検証し、subject をコンテキストに格納します。
func RequireAuth(verifier Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if len(raw) < len("Bearer ") || !strings.EqualFold(raw[:len("Bearer ")], "Bearer ") {
				logger.Debug("missing bearer token", zap.String("request_id", chimw.GetReqID(r.Context())))
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			subject, err := verifier.Verify(r.Context(), raw[len("Bearer "):])
			if err != nil {
				logger.Warn("bearer token rejected",
					zap.String("request_id", chimw.GetReqID(r.Context())),
					zap.Error(err),
				)
				status, message := toHTTPError(err)
				writeError(w, status, message)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey{}, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog はリクエスト単位のアクセスログと Prometheus メトリクスを記録します。
// ルートラベルには chi のルートパターンを使います。
func AccessLog(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			route := routePattern(r)
			if route != "/metrics" {
				m.ObserveRequest(r.Method, route, status, elapsed)
			}

			browser, _ := useragent.New(r.UserAgent()).Browser()
			if browser == "" {
				browser = unknownClient
			}

			logger.Info("http request",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("client_ip", ClientIPFromRequest(r)),
				zap.String("browser", browser),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

package handler

import (
	"errors"
	"net/http"

	"github.com/ogurasousui/employee-directory/internal/core/auth"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"go.uber.org/zap"
)

const (
	msgEmailExists      = "Email address already exists"
	msgInvalidParameter = "Invalid parameter value"
	msgInternal         = "An unexpected error occurred"
)

// toHTTPError はドメインエラーをステータスコードとクライアント向けメッセージに変換します。
// 分類に当てはまらないエラーは詳細を隠して 500 を返します。
func toHTTPError(err error) (int, string) {
	var fe *employee.FieldError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, employee.ErrConflict):
		return http.StatusConflict, msgEmailExists
	case errors.Is(err, employee.ErrNotFound):
		return http.StatusNotFound, "Employee not found"
	case errors.Is(err, employee.ErrRequired),
		errors.Is(err, employee.ErrInvalidFormat),
		errors.Is(err, employee.ErrTooShort):
		if errors.As(err, &fe) && fe.Message != "" {
			return http.StatusBadRequest, fe.Message
		}
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, employee.ErrInvalidParameter):
		if errors.As(err, &fe) && fe.Message != "" {
			return http.StatusBadRequest, fe.Message
		}
		return http.StatusBadRequest, msgInvalidParameter
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, "Username and password are required"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// respondError は err を {"error": ...} 形式で書き出します。500 の場合は原因をログに残します。
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := toHTTPError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, message)
}

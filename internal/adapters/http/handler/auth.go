package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ogurasousui/employee-directory/internal/core/auth"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	Username string `json:"username"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
	ExpiresIn   int64        `json:"expires_in"`
}

type verifyResponse struct {
	Valid bool         `json:"valid"`
	User  userResponse `json:"user"`
}

// Login は POST /api/auth/login を処理します。認証エラーは {"message": ...} 形式で返します。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		status, message := toHTTPError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("login failed", zap.Error(err))
			message = "Authentication failed"
		} else if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Warn("login rejected",
				zap.String("username", req.Username),
				zap.String("client_ip", ClientIPFromRequest(r)),
			)
		}
		writeMessage(w, status, message)
		return
	}

	h.logger.Info("login succeeded", zap.String("username", token.Username))
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token.AccessToken,
		User:        userResponse{Username: token.Username},
		ExpiresIn:   int64(token.ExpiresIn.Seconds()),
	})
}

// Verify は GET /api/auth/verify を処理します。RequireAuth の後段でのみ呼ばれます。
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	subject, _ := SubjectFrom(r.Context())
	writeJSON(w, http.StatusOK, verifyResponse{
		Valid: true,
		User:  userResponse{Username: subject},
	})
}

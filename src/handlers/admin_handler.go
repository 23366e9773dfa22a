// backend/src/handlers/admin_handler.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/security"
	"github.com/username/tradejournal/backend/src/utils"
)

type AdminHandler struct {
	auth *security.AuthService
}

func NewAdminHandler(auth *security.AuthService) *AdminHandler {
	return &AdminHandler{auth: auth}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleLogin exchanges the admin password for a bearer token.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req loginRequest
	if err := decodeBody(r, &req, false); err != nil {
		sendBadRequest(w, err)
		return
	}
	if req.Password == "" {
		utils.SendJSONErrorCode(w, "password is required", "validation_failed", http.StatusBadRequest)
		return
	}

	token, expiresAt, err := h.auth.Login(req.Password)
	switch {
	case errors.Is(err, security.ErrAuthDisabled):
		utils.SendJSONErrorCode(w, err.Error(), "auth_disabled", http.StatusNotFound)
		return
	case errors.Is(err, security.ErrInvalidCredentials):
		ctxLogger.Warn("Admin login failed")
		utils.SendJSONErrorCode(w, "invalid credentials", "unauthorized", http.StatusUnauthorized)
		return
	case err != nil:
		ctxLogger.Error("Failed to issue admin token", "error", err)
		utils.SendJSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Admin logged in", "expiresAt", expiresAt)
	utils.WriteJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}

package server

import (
	"net/http"

	"tunex/logger"
)

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePasswordHandler 修改当前用户密码
func (h *APIHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentityFromContext(r.Context())
	if err := h.accounts.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("[Password] changed", logger.Int64("userId", id.UserID))
	w.WriteHeader(http.StatusNoContent)
}

// GetProfileHandler returns the caller's identity as carried by the token.
func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id.UserID,
		"username": id.Username,
		"roles":    id.RoleNames(),
	})
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tunex/core/account"
	"tunex/core/apperr"
	"tunex/core/library"
	"tunex/core/lyrics"
	"tunex/core/moderation"
	"tunex/core/notification"
	"tunex/core/playlist"
	"tunex/logger"
	"tunex/storage"

	"github.com/gorilla/mux"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	accounts      *account.Service
	library       *library.Service
	playlists     *playlist.Service
	moderation    *moderation.Service
	lyrics        *lyrics.Service
	notifications *notification.Service
	sink          storage.Sink
	maxUpload     int64
}

// Services groups the domain services the HTTP layer delegates to.
type Services struct {
	Accounts      *account.Service
	Library       *library.Service
	Playlists     *playlist.Service
	Moderation    *moderation.Service
	Lyrics        *lyrics.Service
	Notifications *notification.Service
	Sink          storage.Sink
	MaxUpload     int64
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(s Services) *APIHandler {
	if s.MaxUpload <= 0 {
		s.MaxUpload = 50 << 20
	}
	return &APIHandler{
		accounts:      s.Accounts,
		library:       s.Library,
		playlists:     s.Playlists,
		moderation:    s.Moderation,
		lyrics:        s.Lyrics,
		notifications: s.Notifications,
		sink:          s.Sink,
		maxUpload:     s.MaxUpload,
	}
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case apperr.IsServiceError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status matching err. Internal failures are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		msg = http.StatusText(status)
	}
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response failed", logger.ErrorField(err))
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// pathID reads a positive integer route variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}

// formID reads a positive integer form field.
func formID(r *http.Request, name string) (int64, error) {
	raw := r.FormValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}

// seeOther sends form posts back to the dashboard they came from.
func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"tunex/logger"
	"tunex/storage"

	"github.com/gorilla/mux"
)

// MediaHandler serves stored audio by key from the configured sink.
type MediaHandler struct {
	sink storage.Sink
}

// NewMediaHandler 创建 MediaHandler 实例
func NewMediaHandler(sink storage.Sink) *MediaHandler {
	return &MediaHandler{sink: sink}
}

// ServeHTTP 实现 http.Handler 接口
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(mux.Vars(r)["key"], "/")
	if key == "" || strings.Contains(key, "..") {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	object, err := h.sink.Open(r.Context(), key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", storage.ContentType(key))
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("Error serving stored file", logger.String("key", key), logger.ErrorField(err))
	}
}

package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"resqnowserver/internal/storage"
)

// handleImage streams a stored image to browser clients. It owns its own
// method handling because cross-origin callers preflight with OPTIONS.
func (a *api) handleImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "invalid_argument", "Image path is required")
		return
	}
	// The object store is never consulted for a path that could escape the
	// bucket namespace. Any ".." occurrence is rejected, not just whole
	// segments.
	if strings.HasPrefix(path, "/") || strings.Contains(path, "..") {
		WriteError(w, http.StatusBadRequest, "invalid_argument", "Invalid image path")
		return
	}

	obj, err := a.imageStore.Open(r.Context(), path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Image not found")
			return
		}
		a.logger.Error("image fetch failed", "path", path, "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch image")
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.Copy(w, obj.Body)
}

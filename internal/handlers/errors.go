package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ahsanfayaz52/notesapp/internal/middleware"
)

func serverError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"error", err,
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

func badRequest(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// collections whose trailing path segment is a record id.
var collections = []string{
	orderPath,
	patchOrderPath,
	cancelPath,
	deliveryDatePath,
	chargePath,
	hubPath,
	attachmentDeletePath,
}

// normalizePath collapses ids in the path into :id so the metric labels
// stay bounded. Listener routes collapse into :eventType.
func normalizePath(path string) string {
	if strings.HasPrefix(path, listenerPath+"/") {
		return listenerPath + "/:eventType"
	}
	for _, c := range collections {
		if rest, ok := strings.CutPrefix(path, c+"/"); ok && rest != "" {
			return c + "/:id"
		}
	}
	return path
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestCount.WithLabelValues(r.Method, path, fmt.Sprint(rw.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

func recoveryMiddleware(next http.Handler, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorw("server encountered panic",
					"panic", rec,
					"stack", string(debug.Stack()),
					"method", r.Method,
					"url", r.URL.String(),
					"remote", r.RemoteAddr,
				)
				w.Header().Set("Content-Type", contentType)
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(apierror.Internal("Internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

package api

import (
	"context"
	"net/http"

	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	crossConnectPrefix = "/mef/v1/accounting/crossconnect"
	sonataPrefix       = "/v1/MEF/lsoSonata"

	orderPath            = crossConnectPrefix + "/productOrder"
	cancelCreatePath     = crossConnectPrefix + "/cancelProductOrder"
	movePath             = crossConnectPrefix + "/qcl_crossconnect_move"
	uploadPath           = crossConnectPrefix + "/upload"
	attachmentDeletePath = crossConnectPrefix + "/delete"

	patchOrderPath   = sonataPrefix + "/productOrder"
	cancelPath       = sonataPrefix + "/cancelProductOrder"
	deliveryDatePath = sonataPrefix + "/modifyProductOrderItemRequestedDeliveryDate"
	chargePath       = sonataPrefix + "/charge"
	hubPath          = sonataPrefix + "/hub"
	listenerPath     = sonataPrefix + "/listener"

	healthPath = "/health-check"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	IsHealthy() bool
}

// Server is the HTTP server.
type Server struct {
	orders     *service.Lifecycle
	hub        *service.Hub
	notifier   *service.Notifier
	health     HealthChecker
	logger     logger.Logger
	httpServer *http.Server
}

// NewServer creates a new Server. health may be nil, in which case the
// health check only reports that the process is up.
func NewServer(
	orders *service.Lifecycle,
	hub *service.Hub,
	notifier *service.Notifier,
	health HealthChecker,
	logger logger.Logger,
	cfg config.HTTPServerConfig,
) *Server {
	srv := &Server{
		orders:   orders,
		hub:      hub,
		notifier: notifier,
		health:   health,
		logger:   logger,
	}

	mainMux := http.NewServeMux()
	mainMux.Handle("/metrics", promhttp.Handler())
	mainMux.Handle("/", metricsMiddleware(recoveryMiddleware(srv.routes(), logger)))

	srv.httpServer = &http.Server{
		Handler:      mainMux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return srv
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+orderPath, s.createOrder)
	mux.HandleFunc("GET "+orderPath, s.listOrders)
	mux.HandleFunc("GET "+orderPath+"/{id}", s.getOrder)
	mux.HandleFunc("PATCH "+patchOrderPath+"/{id}", s.patchOrder)

	mux.HandleFunc("POST "+cancelCreatePath, s.createCancel)
	mux.HandleFunc("GET "+cancelPath, s.listCancels)
	mux.HandleFunc("GET "+cancelPath+"/{id}", s.getCancel)

	mux.HandleFunc("POST "+deliveryDatePath, s.createDeliveryDate)
	mux.HandleFunc("GET "+deliveryDatePath, s.listDeliveryDates)
	mux.HandleFunc("GET "+deliveryDatePath+"/{id}", s.getDeliveryDate)

	mux.HandleFunc("GET "+chargePath, s.listCharges)
	mux.HandleFunc("GET "+chargePath+"/{id}", s.getCharge)

	mux.HandleFunc("POST "+hubPath, s.subscribe)
	mux.HandleFunc("GET "+hubPath+"/{id}", s.getSubscription)
	mux.HandleFunc("DELETE "+hubPath+"/{id}", s.unsubscribe)
	mux.HandleFunc("POST "+listenerPath+"/{eventType}", s.listen)

	mux.HandleFunc("POST "+movePath, s.moveCrossConnect)
	mux.HandleFunc("POST "+uploadPath, s.uploadAttachment)
	mux.HandleFunc("DELETE "+attachmentDeletePath+"/{id}", s.deleteAttachment)

	mux.HandleFunc("GET "+healthPath, s.healthCheck)

	return mux
}

// Handler exposes the full handler chain, metrics included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start the server
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr
	s.logger.Infow("Server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

type healthDetail struct {
	Message    string  `json:"message"`
	StatusCode int     `json:"statusCode"`
	ErrorCode  *string `json:"errorCode"`
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health != nil && !s.health.IsHealthy() {
		code := "storeUnavailable"
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]healthDetail{
			"detail": {Message: "Store is unreachable", StatusCode: http.StatusServiceUnavailable, ErrorCode: &code},
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]healthDetail{
		"detail": {Message: "Server is up", StatusCode: http.StatusOK},
	})
}

package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// server exposes the processor's health and metrics endpoints.
type server struct {
	metrics    http.Handler
	httpServer *http.Server
	addr       string
	logger     *zap.Logger
}

func (ser *server) registerHandlers(router *mux.Router) {

	router.HandleFunc("/health", healthcheck).Methods(http.MethodGet)
	router.Handle("/metrics", ser.metrics).Methods(http.MethodGet)

}

func healthcheck(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("all good here"))
}

func NewServer(logger *zap.Logger, metrics http.Handler, address string) *server {
	ser := &server{
		metrics: metrics,
		addr:    address,
		logger:  logger,
	}

	router := mux.NewRouter()
	ser.registerHandlers(router)
	ser.httpServer = &http.Server{
		Handler: router,
		Addr:    ser.addr,
	}

	return ser
}

// Run blocks until the server is shut down.
func (ser *server) Run() error {
	ser.logger.Info("serving metrics on " + ser.addr)

	if err := ser.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (ser *server) Shutdown(ctx context.Context) error {
	return ser.httpServer.Shutdown(ctx)
}

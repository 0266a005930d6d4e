package service

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

const shutdownGrace = 5 * time.Second

// HealthzServer answers liveness probes while a long-running test service
// is up. It reports OK unconditionally: a process that can serve the
// endpoint is alive, session results are reported elsewhere.
type HealthzServer struct {
	server *http.Server
}

func (h *HealthzServer) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		log.Debug("health check", "path", r.URL.Path, "remote", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck
	})

	h.server = &http.Server{
		Addr:    addr,
		Handler: cors.AllowAll().Handler(mux),
	}
	return h.server.ListenAndServe()
}

func (h *HealthzServer) Shutdown() error {
	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return h.server.Shutdown(ctx)
}

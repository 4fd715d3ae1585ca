package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

var landingPage = template.Must(template.New("landing").Parse(`<html>
<head><title>Katello Exporter</title></head>
<body>
<h1>Katello Exporter</h1>
<p>Polling {{.Server}}</p>
<p><a href="{{.MetricsPath}}">Metrics</a></p>
</body>
</html>
`))

// Options configures the handler.
type Options struct {
	// MetricsPath serves the text exposition. Defaults to /metrics.
	MetricsPath string

	// Server is the upstream base URL shown on the landing page.
	Server string
}

// Handler serves the metrics endpoint, a landing page and a health check.
type Handler struct {
	opts Options
	mux  *http.ServeMux
}

// New creates a Handler exposing gatherer and registers all routes.
// promhttp self-metrics are registered with reg when it is non-nil.
func New(gatherer prometheus.Gatherer, reg prometheus.Registerer, opts Options) http.Handler {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	h := &Handler{opts: opts, mux: http.NewServeMux()}

	var metrics http.Handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
	if reg != nil {
		metrics = promhttp.InstrumentMetricHandler(reg, metrics)
	}

	h.mux.Handle(opts.MetricsPath, metrics)
	h.mux.HandleFunc("/healthz", h.health)
	if opts.MetricsPath != "/" {
		h.mux.HandleFunc("/", h.landing)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// health returns GET /healthz. It reports the exporter process only; upstream
// health is exported as katello_service_status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handler) landing(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	landingPage.Execute(w, h.opts) //nolint:errcheck
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// Serve runs an HTTP server for handler on addr until ctx is cancelled, then
// shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web: HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

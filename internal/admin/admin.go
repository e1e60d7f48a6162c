package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"shardlink/internal/client"
	"shardlink/internal/flog"
	"shardlink/internal/framing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source is what the admin endpoints report on.
type Source interface {
	Status() client.Status
	Table() *framing.Table
}

type Admin struct {
	src    Source
	gather prometheus.Gatherer
	router chi.Router
}

func New(src Source, gather prometheus.Gatherer) *Admin {
	a := &Admin{src: src, gather: gather}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLog)
	r.Get("/healthz", a.handleHealth)
	r.Get("/status", a.handleStatus)
	r.Get("/table", a.handleTable)
	if gather != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gather, promhttp.HandlerOpts{}))
	}
	a.router = r
	return a
}

func (a *Admin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start listens on addr and serves until ctx is done.
func (a *Admin) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	flog.Infof("admin listening on %s", listener.Addr())

	server := &http.Server{
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			flog.Errorf("admin server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			flog.Debugf("admin shutdown with: %v", err)
		}
	}()
	return nil
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		flog.Debugf("admin %s %s from %s: %d in %s", r.Method, r.URL.Path, r.RemoteAddr, ww.Status(), time.Since(start))
	})
}

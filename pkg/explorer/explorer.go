package explorer

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

const shutdownTimeout = 30 * time.Second

// Explorer wires the credential store, the query engine and the service
// together and runs the HTTP servers.
type Explorer struct {
	cfg    Config
	svc    *Service
	rand   *rand.Rand
	logger log.FieldLogger

	closers []func() error
}

// New opens the credential store and connects to the query engine.
func New(ctx context.Context, logger log.FieldLogger, cfg Config) (*Explorer, error) {
	cfg.setDefaults()
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	e := &Explorer{
		cfg:    cfg,
		rand:   newRand(time.Now().UnixNano()),
		logger: logger,
	}

	var store targets.SecretStore
	if cfg.StorePath != "" {
		sqliteStore, err := targets.OpenSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("unable to open credential store: %w", err)
		}
		e.closers = append(e.closers, sqliteStore.Close)
		store = sqliteStore
	} else {
		logger.Warnf("no credential store path configured, targets are kept in memory")
		store = targets.NewMemoryStore()
	}
	repo := targets.NewRepository(logger, store, cfg.StorageKey)

	logger.Infof("setting up %s query engine", cfg.Engine)
	engines, closeEngines, err := newEngineFactory(ctx, logger, cfg)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, closeEngines)
	e.svc = NewService(logger, repo, engines, cfg)
	return e, nil
}

func (e *Explorer) Service() *Service {
	return e.svc
}

// Close stops the running pipeline and releases the store and engine.
func (e *Explorer) Close() {
	if e.svc != nil {
		e.svc.Close()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.WithError(err).Warnf("error while closing resources")
		}
	}
	e.closers = nil
}

type namedServer struct {
	name string
	srv  *http.Server
	tls  TLSConfig
}

// Run serves the API, metrics and pprof endpoints until ctx is cancelled
// or one of the servers fails.
func (e *Explorer) Run(ctx context.Context) error {
	defer e.Close()
	e.logger.Info("starting cost explorer")

	servers := []namedServer{
		{name: "HTTP API", srv: &http.Server{Addr: e.cfg.APIAddress, Handler: newRouter(e.logger, e.rand, e.svc)}, tls: e.cfg.APITLSConfig},
		{name: "Prometheus metrics", srv: &http.Server{Addr: e.cfg.MetricsAddress, Handler: promhttp.Handler()}, tls: e.cfg.MetricsTLSConfig},
		{name: "pprof", srv: newPprofServer(e.cfg.PprofAddress)},
	}

	if e.cfg.RefreshSchedule != "" {
		c := cron.New()
		if err := c.AddFunc(e.cfg.RefreshSchedule, e.svc.Refresh); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %v", e.cfg.RefreshSchedule, err)
		}
		e.logger.Infof("refreshing the selected target on schedule %q", e.cfg.RefreshSchedule)
		c.Start()
		defer c.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		s := s
		g.Go(func() error {
			var srvErr error
			if s.tls.UseTLS {
				e.logger.Infof("%s server listening with TLS on %s", s.name, s.srv.Addr)
				srvErr = s.srv.ListenAndServeTLS(s.tls.TLSCert, s.tls.TLSKey)
			} else {
				e.logger.Infof("%s server listening on %s", s.name, s.srv.Addr)
				srvErr = s.srv.ListenAndServe()
			}
			if srvErr == http.ErrServerClosed {
				e.logger.Infof("%s server exited", s.name)
				return nil
			}
			e.logger.WithError(srvErr).Errorf("%s server exited", s.name)
			return fmt.Errorf("%s server error: %v", s.name, srvErr)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, s := range servers {
			e.logger.Infof("stopping %s server", s.name)
			if err := s.srv.Shutdown(shutdownCtx); err != nil {
				e.logger.WithError(err).Warnf("got an error shutting down %s server", s.name)
			}
		}
		return nil
	})

	err := g.Wait()
	e.logger.Info("cost explorer has stopped")
	return err
}

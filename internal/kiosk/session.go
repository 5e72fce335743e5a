package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/backend"
	"github.com/fjod/go_cart/smart-trolley/internal/cache"
	"github.com/fjod/go_cart/smart-trolley/internal/config"
	"github.com/fjod/go_cart/smart-trolley/internal/health"
	kh "github.com/fjod/go_cart/smart-trolley/internal/http"
	"github.com/fjod/go_cart/smart-trolley/internal/journal"
	"github.com/fjod/go_cart/smart-trolley/internal/mirror"
	"github.com/fjod/go_cart/smart-trolley/internal/monitor"
	"github.com/fjod/go_cart/smart-trolley/internal/publisher"
	"github.com/fjod/go_cart/smart-trolley/internal/service"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Session is one kiosk bound to one trolley: the cart mirror, the
// controllers, the background loops and the two listeners.
type Session struct {
	cfg *config.Config

	Client *backend.Client
	Mirror *mirror.Mirror
	Gate   *service.Gate
	Status *kh.StatusBoard
	Alerts *kh.AlertBoard
	Weight *kh.WeightBoard

	alertLoop  *monitor.Loop
	weightLoop *monitor.WeightLoop
	health     *health.Server
	httpServer *http.Server

	journal   *journal.Journal
	publisher *publisher.AlertPublisher
	redis     *redis.Client

	httpLis   net.Listener
	healthLis net.Listener

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

type Option func(*Session)

// WithListeners serves on already bound listeners instead of the
// configured ports.
func WithListeners(httpLis, healthLis net.Listener) Option {
	return func(s *Session) {
		s.httpLis = httpLis
		s.healthLis = healthLis
	}
}

// WithHTTPClient replaces the client used to reach the trolley backend.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		s.Client = backend.NewClient(s.cfg.BackendURL, s.cfg.Timeouts(), backend.WithHTTPClient(c))
	}
}

func New(cfg *config.Config, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:    cfg,
		Client: backend.NewClient(cfg.BackendURL, cfg.Timeouts()),
		Gate:   service.NewGate(),
		Status: kh.NewStatusBoard(),
		Alerts: kh.NewAlertBoard(),
		Weight: kh.NewWeightBoard(),
		health: health.NewServer(monitor.LoopAlerts),
	}
	for _, opt := range opts {
		opt(s)
	}

	var mirrorOpts []mirror.Option
	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		mirrorOpts = append(mirrorOpts, mirror.WithCache(cache.NewRedisCache(s.redis), cfg.TrolleyID))
	}
	s.Mirror = mirror.New(s.Client, mirrorOpts...)

	deps := service.Deps{
		Mirror:    s.Mirror,
		Gate:      s.Gate,
		Reporter:  s.Status,
		TrolleyID: cfg.TrolleyID,
	}

	var sinks []monitor.AlertSink
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		s.journal = j
		deps.Journal = j
		sinks = append(sinks, j)
	}
	if len(cfg.KafkaBrokers) > 0 {
		s.publisher = publisher.NewAlertPublisher(cfg.AlertTopic, cfg.KafkaBrokers...)
		sinks = append(sinks, s.publisher)
	}

	s.alertLoop = monitor.NewLoop(s.Client, s.Alerts,
		monitor.WithSinks(sinks...),
		monitor.WithHealth(s.health),
		monitor.WithTrolleyID(cfg.TrolleyID),
	)
	s.weightLoop = monitor.NewWeightLoop(s.Client, s.Weight, monitor.WithWeightHealth(s.health))

	handler := kh.NewKioskHandler(kh.Controllers{
		Cart:     s.Mirror,
		Scanner:  service.NewScanController(deps, s.Client),
		Remover:  service.NewRemovalController(deps, s.Client),
		Checkout: service.NewCheckoutTrigger(deps, s.Client),
		Verifier: service.NewSecurityVerifier(deps, s.Client),
		Gate:     s.Gate,
		Status:   s.Status,
		Alerts:   s.Alerts,
		Weight:   s.Weight,
	}, cfg.ActionTimeout)

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      kh.NewRouter(handler, cfg.ActionTimeout+5*time.Second),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ActionTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Start warms the mirror and launches the loops and listeners. It returns
// once everything is running; failures after that surface from Wait.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != nil {
		return errors.New("session already started")
	}

	if err := s.listen(); err != nil {
		return err
	}

	if err := s.Mirror.Restore(ctx); err != nil {
		log.Printf("cart cache restore failed: %v", err)
	}
	if _, err := s.Mirror.Refresh(ctx); err != nil {
		log.Printf("initial cart refresh failed: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		s.alertLoop.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.weightLoop.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return s.health.Serve(gctx, s.healthLis)
	})
	g.Go(func() error {
		log.Printf("kiosk api listening at %v", s.httpLis.Addr())
		if err := s.httpServer.Serve(s.httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer done()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})

	s.cancel = cancel
	s.group = g
	return nil
}

func (s *Session) listen() error {
	if s.httpLis == nil {
		lis, err := net.Listen("tcp", s.cfg.HTTPAddr())
		if err != nil {
			return fmt.Errorf("listen http: %w", err)
		}
		s.httpLis = lis
	}
	if s.healthLis == nil {
		lis, err := net.Listen("tcp", s.cfg.HealthAddr())
		if err != nil {
			s.httpLis.Close()
			return fmt.Errorf("listen health: %w", err)
		}
		s.healthLis = lis
	}
	return nil
}

// Wait blocks until the session stops and returns the first failure.
func (s *Session) Wait() error {
	s.mu.Lock()
	g := s.group
	s.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

// Stop cancels the loops, drains the listeners and releases resources.
func (s *Session) Stop() error {
	s.mu.Lock()
	cancel, g := s.cancel, s.group
	s.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
		err = g.Wait()
	}
	s.close()
	return err
}

func (s *Session) close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Printf("failed to close alert publisher: %v", err)
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			log.Printf("failed to close journal: %v", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("failed to close redis: %v", err)
		}
	}
}

// Journal exposes the audit journal, nil when disabled.
func (s *Session) Journal() *journal.Journal {
	return s.journal
}

func (s *Session) HTTPAddr() string {
	if s.httpLis == nil {
		return ""
	}
	return s.httpLis.Addr().String()
}

func (s *Session) HealthAddr() string {
	if s.healthLis == nil {
		return ""
	}
	return s.healthLis.Addr().String()
}

// Package app wires the storefront dependencies and runs the HTTP server.
package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const serviceName = "storefront-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	backends, err := OpenBackends(ctx, lg, cfg)
	if err != nil {
		return errors.Wrap(err, "open backends")
	}
	defer func() {
		if err := backends.Close(); err != nil {
			lg.Error("Close backends", zap.Error(err))
		}
	}()

	healthSvc := health.New()
	for name, p := range backends.Pingers {
		healthSvc.AddReadinessCheck(name, 5*time.Second, health.PingCheck(p))
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	h, err := NewHandler(ctx, lg, m, cfg, backends, healthSvc)
	if err != nil {
		healthSvc.Stop()
		return err
	}
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Checkout holds the request for the simulated payment.
		WriteTimeout:   10*time.Second + cfg.Checkout.ProcessingDelay,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler:        h,
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	return g.Wait()
}

// NewHandler builds the storefront services on top of b and returns the
// root handler: health probes, the API and the middleware chain.
func NewHandler(
	ctx context.Context,
	lg *zap.Logger,
	t httpmiddleware.TelemetryProvider,
	cfg *Config,
	b *Backends,
	healthSvc *health.Health,
) (http.Handler, error) {
	cat, err := catalog.Load(ctx, b.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	lg.Info("Catalog loaded",
		zap.Int("products", cat.Len()),
		zap.Int("categories", len(cat.Categories())),
	)

	metrics, err := cart.NewMetrics(t.MeterProvider().Meter("storefront/cart"))
	if err != nil {
		return nil, errors.Wrap(err, "cart metrics")
	}
	carts := cart.NewRegistryWithCapacity(cfg.Storage.OpenCarts, b.Carts,
		cart.WithLogger(lg.Named("cart")),
		cart.WithNotifier(cart.NewLogNotifier(lg.Named("notify"))),
		cart.WithMetrics(metrics),
	)

	co := checkout.NewService(coupon.NewService(b.Coupons),
		checkout.WithOrders(b.Orders),
		checkout.WithProcessingDelay(cfg.Checkout.ProcessingDelay),
		checkout.WithTracerProvider(t.TracerProvider()),
	)

	gin.SetMode(gin.ReleaseMode)
	api := handler.New(handler.Config{
		ImageBaseURL:  cfg.ImageBaseURL,
		SecureCookies: cfg.SecureCookies,
	}, cat, carts, co).Engine()

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", handler.SessionHeader, httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{handler.SessionHeader, httpmiddleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument(serviceName, t),
		httpmiddleware.LogRequests(),
	), nil
}

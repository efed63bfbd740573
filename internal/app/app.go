package app

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/distrokart/storefront/data"
	"github.com/distrokart/storefront/internal/domain/checkout"
	"github.com/distrokart/storefront/internal/domain/promo"
	"github.com/distrokart/storefront/internal/handler"
	"github.com/distrokart/storefront/internal/storage/memory"
	"github.com/distrokart/storefront/pkg/health"
	"github.com/distrokart/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// In-memory stores seeded from embedded documents.
	products, err := memory.ParseProducts(data.Products)
	if err != nil {
		return errors.Wrap(err, "parse embedded products")
	}

	promoSeed := data.PromoCodes
	if cfg.PromoRulesFile != "" {
		promoSeed, err = os.ReadFile(cfg.PromoRulesFile)
		if err != nil {
			return errors.Wrapf(err, "read promo rules file %s", cfg.PromoRulesFile)
		}
	}
	rules, err := memory.ParsePromoRules(promoSeed)
	if err != nil {
		return errors.Wrap(err, "parse promo rules")
	}

	catalogStore := memory.NewCatalogStore(products, cfg.DataDelay)
	promoStore := memory.NewPromoStore(rules, cfg.DataDelay)
	settingsStore := memory.NewSettingsStore(data.Settings, cfg.DataDelay)
	checkoutLog := memory.NewCheckoutLog()

	if cfg.PromoFilterFile != "" {
		if err := promoStore.LoadFilterFile(cfg.PromoFilterFile); err != nil {
			return errors.Wrap(err, "load promo filter")
		}
		lg.Info("Loaded promo filter", zap.String("file", cfg.PromoFilterFile))
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", 5*time.Second, func(ctx context.Context) error {
		_, err := catalogStore.List(ctx)
		return err
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	promoValidator := promo.NewRepoValidator(promoStore)
	checkoutSvc := checkout.NewService(catalogStore, settingsStore, checkoutLog)

	// HTTP handlers.
	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		catalogStore,
		promoValidator,
		checkoutSvc,
		settingsStore,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	lg.Info("Catalog loaded",
		zap.Int("products", len(products)),
		zap.Int("promo_rules", len(rules)),
		zap.Int("gomaxprocs", runtime.GOMAXPROCS(0)),
	)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

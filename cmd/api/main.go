package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/glowcart/storefront-api/internal/analytics"
	"github.com/glowcart/storefront-api/internal/audit"
	"github.com/glowcart/storefront-api/internal/auth"
	"github.com/glowcart/storefront-api/internal/cart"
	"github.com/glowcart/storefront-api/internal/catalog"
	"github.com/glowcart/storefront-api/internal/checkout"
	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/config"
	"github.com/glowcart/storefront-api/internal/coupon"
	"github.com/glowcart/storefront-api/internal/events"
	"github.com/glowcart/storefront-api/internal/health"
	"github.com/glowcart/storefront-api/internal/lock"
	"github.com/glowcart/storefront-api/internal/obs"
	"github.com/glowcart/storefront-api/internal/order"
	"github.com/glowcart/storefront-api/internal/pricing"
	"github.com/glowcart/storefront-api/internal/ratelimit"
	"github.com/glowcart/storefront-api/internal/reviews"
	"github.com/glowcart/storefront-api/internal/security"
	"github.com/glowcart/storefront-api/internal/store"
	"github.com/glowcart/storefront-api/internal/user"
	"github.com/glowcart/storefront-api/internal/wishlist"
)

func main() {
	cfg := config.MustLoad()

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "glowcart")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.OTLPEndpoint != ""
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "glowcart-api",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: 1.0,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "glowcart-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	st := store.New(pool, logger)

	shippingPolicy := pricing.ShippingPolicy{
		FlatFee:    cfg.ShippingFlatFee,
		FreeMinQty: cfg.FreeShippingMinQty,
	}

	bus := &events.Bus{
		Store:     st.Events,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	couponSvc := &coupon.Service{Q: st.Coupons, DefaultPerUserLimit: cfg.CouponPerUserLimit}
	couponHandler := &coupon.Handler{Repo: st.Coupons, Svc: couponSvc, Validate: validator.New()}

	catalogSvc := &catalog.Service{
		Repo:   st.Catalog,
		Cache:  catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Logger: logger,
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	cartSvc := &cart.Service{
		Carts:    st.Carts,
		Catalog:  st.Catalog,
		Coupons:  couponSvc,
		Events:   bus,
		TTL:      cfg.CartTTL,
		TaxBps:   cfg.TaxRateBps,
		Shipping: shippingPolicy,
	}
	cartHandler := &cart.Handler{Svc: cartSvc}

	checkoutSvc := &checkout.Service{
		Pool:     pool,
		Orders:   st.Orders,
		Carts:    st.Carts,
		CartSvc:  cartSvc,
		Coupons:  couponSvc,
		Events:   bus,
		Locks:    lock.Locker{Client: redisClient},
		Currency: cfg.CurrencyCode,
		TaxBps:   cfg.TaxRateBps,
		Shipping: shippingPolicy,
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	orderHandler := &order.Handler{Orders: st.Orders, Events: bus}

	authSvc, err := auth.NewService(auth.Config{
		Users:          st.Users,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Svc: authSvc}
	authMW := auth.Middleware{Service: authSvc}

	auditRecorder := audit.Recorder{Bus: bus, Logger: logger}
	auditHandler := &audit.Handler{Trail: st.Events}

	analyticsHandler := &analytics.Handler{Svc: &analytics.Service{
		Q:            st.Stats,
		R:            redisClient,
		TTL:          cfg.AnalyticsCacheTTL,
		DefaultRange: 30,
	}}

	addressHandler := &user.Handler{Svc: &user.Service{Addrs: st.Addrs}}
	wishlistHandler := &wishlist.Handler{Svc: &wishlist.Service{Store: st.Wishlist, Catalog: st.Catalog}}
	reviewHandler := &reviews.Handler{Svc: &reviews.Service{Store: st.Reviews, Catalog: st.Catalog}}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL, Logger: logger}
	limiter := ratelimit.Middleware{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:"},
		Window:  cfg.RateLimitWindow,
		Max:     cfg.RateLimitMax,
		Logger:  logger,
	}

	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, nil, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Session-Id", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/debug/pprof", newPprofMux())

	healthHandler := health.Handler{Checker: health.Probe{Pool: pool, Redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limiter.Handler)
		v.Use(authMW.Authenticate)

		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{slug}", catalogHandler.Product)
		v.Get("/collections", catalogHandler.Collections)
		v.Get("/collections/{slug}", catalogHandler.Collection)

		v.Get("/products/{productId}/reviews", reviewHandler.List)
		v.With(authMW.RequireAuth).Post("/products/{productId}/reviews", reviewHandler.Create)
		v.With(authMW.RequireAuth).Delete("/reviews/{reviewId}", reviewHandler.Delete)

		v.Route("/coupons", func(c chi.Router) {
			c.Post("/validate", couponHandler.ValidateCoupon)
			c.Post("/available", couponHandler.Available)
			c.Get("/active", couponHandler.Active)
			c.Get("/user/{userId}", couponHandler.ForUser)
		})

		v.Route("/cart", func(c chi.Router) {
			c.Get("/{cartId}", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Ensure)
				g.Post("/{cartId}/items", cartHandler.AddItem)
				g.Patch("/{cartId}/items/{itemId}", cartHandler.UpdateQty)
				g.Delete("/{cartId}/items/{itemId}", cartHandler.RemoveItem)
				g.Post("/{cartId}/coupon", cartHandler.ApplyCoupon)
				g.Delete("/{cartId}/coupon", cartHandler.RemoveCoupon)
				g.With(authMW.RequireAuth).Post("/merge", cartHandler.Merge)
			})
		})

		v.With(idem.Middleware, authMW.RequireAuth).Post("/checkout", checkoutHandler.Checkout)

		v.Group(func(authR chi.Router) {
			authR.Use(authMW.RequireAuth)
			authR.Get("/orders", orderHandler.List)
			authR.Get("/orders/{orderId}", orderHandler.Get)
			authR.Post("/orders/{orderId}/cancel", orderHandler.Cancel)

			authR.Get("/wishlist", wishlistHandler.List)
			authR.Post("/wishlist", wishlistHandler.Toggle)
			authR.Get("/wishlist/{productId}", wishlistHandler.Contains)

			authR.Route("/users/me/addresses", func(a chi.Router) {
				a.Get("/", addressHandler.List)
				a.Post("/", addressHandler.Create)
				a.Patch("/{addressId}", addressHandler.Update)
				a.Delete("/{addressId}", addressHandler.Delete)
			})
		})

		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.Post("/login", authHandler.Login)
			a.With(authMW.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMW.RequireRole("admin"))
			admin.Use(auditRecorder.Middleware)
			admin.Post("/coupons", couponHandler.Create)
			admin.Put("/coupons/{code}", couponHandler.Update)
			admin.Delete("/coupons/{code}", couponHandler.Delete)

			admin.Patch("/orders/{orderId}/status", orderHandler.UpdateStatus)

			admin.Get("/analytics/overview", analyticsHandler.Overview)
			admin.Get("/analytics/top-products", analyticsHandler.TopProducts)
			admin.Get("/audit", auditHandler.List)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-runCtx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

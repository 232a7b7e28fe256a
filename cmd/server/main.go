package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/cache"
	"github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.AccessSecret, "ACCESS_TOKEN_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_TOKEN_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}
	rdb, err := cache.New(ctx, cfg.RedisURL, "")
	if err != nil {
		cancel()
		log.Fatalf("redis: %v", err)
	}

	// A nil Index keeps product search on the database.
	var index search.Index
	if cfg.ESURL != "" {
		es, err := search.NewESIndex(ctx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			logger.Warn("search_unavailable", "reason", "falling back to database search", "error", err)
		} else {
			index = es
		}
	}
	cancel()

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	gateway := payment.New(cfg.PaymentURL, cfg.PaymentAPIKey, cfg.PaymentTimeout)
	if cfg.PaymentURL == "" {
		logger.Warn("payment_unconfigured", "reason", "PAYMENT_URL is empty, checkout is disabled")
	}

	store := &repo.GormRepo{DB: db}
	issuer := &tokens.Issuer{AccessSecret: cfg.AccessSecret, RefreshSecret: cfg.RefreshSecret}
	authSvc := &service.AuthService{Repo: store, Tokens: issuer, Sessions: session.NewStore(rdb), Events: publisher}

	e := httpserver.New(logger, []string{cfg.ClientURL})
	httpserver.Register(e, &httpserver.Deps{
		Guard:     &httpserver.Guard{Tokens: issuer, Auth: authSvc},
		Auth:      &httpserver.AuthHTTP{Svc: authSvc, Cookies: httpserver.Cookies{Secure: cfg.Production()}},
		Catalog:   &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: store, Cache: rdb, Search: index, Events: publisher}},
		Cart:      &httpserver.CartHTTP{Svc: &service.CartService{Repo: store, Events: publisher}},
		Coupons:   &httpserver.CouponHTTP{Svc: &service.CouponService{Repo: store}},
		Payment:   &httpserver.PaymentHTTP{Svc: &service.PaymentService{Repo: store, Gateway: gateway, Events: publisher, ClientURL: cfg.ClientURL}},
		Analytics: &httpserver.AnalyticsHTTP{Svc: &service.AnalyticsService{Repo: store}},
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("publisher_close_failed", "error", err)
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis_close_failed", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_failed", "error", err)
	}
	logger.Info("shutdown_complete")
}

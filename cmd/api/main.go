package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microhub-delivery/internal/config"
	"microhub-delivery/internal/metrics"
	appmw "microhub-delivery/internal/middleware"
	"microhub-delivery/internal/modules/auth"
	"microhub-delivery/internal/modules/catalog"
	"microhub-delivery/internal/modules/fleet"
	"microhub-delivery/internal/modules/order"
	"microhub-delivery/internal/modules/shelfbooking"
	"microhub-delivery/pkg/notify"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	reg := metrics.NewRegistry()

	// Email warnings are optional; without SES config the sweeper just skips
	// them.
	var notifier notify.ServiceInterface
	if cfg.AWSRegion != "" && cfg.NotifyFromEmail != "" {
		sesNotifier, err := notify.NewSESService(ctx, cfg.AWSRegion, cfg.NotifyFromEmail)
		if err != nil {
			log.Fatalf("failed to init SES notifier: %v", err)
		}
		notifier = sesNotifier
	} else {
		log.Println("SES not configured; booking expiry warnings disabled")
	}

	// Repositories
	orderRepo := order.NewRepository(pool)
	bookingRepo := shelfbooking.NewRepository(pool)
	productRepo := catalog.NewProductRepository(pool)
	microhubRepo := catalog.NewMicrohubRepository(pool)
	fleetRepo := fleet.NewRepository(pool)
	authRepo := auth.NewRepository(pool)

	// Services
	orderSvc := order.NewService(orderRepo, productRepo, microhubRepo, fleetRepo, reg)
	bookingSvc := shelfbooking.NewService(bookingRepo, microhubRepo, notifier, reg)
	catalogSvc := catalog.NewService(productRepo, microhubRepo)
	fleetSvc := fleet.NewService(fleetRepo)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(reg.Handler()))

	auth.NewHandler(authSvc).RegisterRoutes(e.Group("/auth"))

	api := e.Group("/api", appmw.JWT(cfg.JWTSecret))
	order.NewHandler(orderSvc).RegisterRoutes(api)
	shelfbooking.NewHandler(bookingSvc).RegisterRoutes(api)
	catalog.NewHandler(catalogSvc).RegisterRoutes(api)
	fleet.NewHandler(fleetSvc).RegisterRoutes(api)

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

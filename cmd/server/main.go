package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"boat-safety-go/internal/client"
	"boat-safety-go/internal/collision"
	"boat-safety-go/internal/config"
	"boat-safety-go/internal/database"
	"boat-safety-go/internal/handler"
	"boat-safety-go/internal/logging"
	"boat-safety-go/internal/monitor"
	"boat-safety-go/internal/repository"
	"boat-safety-go/internal/service"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.File)

	logger.Info("Starting boat safety server")

	sysCfg, err := config.LoadSystemConfig(cfg.SystemConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load system config: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"boat_length":         sysCfg.Boat.Length,
		"emergency_threshold": sysCfg.EmergencyThresholdS,
		"warning_threshold":   sysCfg.WarningThresholdS,
		"max_boats":           sysCfg.MaxBoats,
	}).Info("System config loaded")

	detector := collision.NewDetector(sysCfg)

	var (
		dockRepo  repository.DockRepository
		routeRepo repository.RouteRepository
		dbCheck   func() error
	)
	if cfg.Database.Enabled {
		logger.Info("Connecting to database...")
		if err := database.Connect(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Name,
			Username: cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
		}); err != nil {
			logger.Fatalf("Database connection failed: %v", err)
		}
		defer database.Close()

		if err := database.Migrate(); err != nil {
			logger.Fatalf("Database migration failed: %v", err)
		}
		if err := database.HealthCheck(); err != nil {
			logger.Fatalf("Database is unavailable: %v", err)
		}
		dockRepo = repository.NewDockRepository(database.DB)
		routeRepo = repository.NewRouteRepository(database.DB)
		dbCheck = database.HealthCheck
		logger.Info("Database connected and migrated")
	} else {
		logger.Warn("Database disabled, docks and routes are kept in memory only")
	}

	fleetService := service.NewFleetService(detector, dockRepo, routeRepo, logger)
	if err := fleetService.LoadStatic(context.Background()); err != nil {
		logger.Fatalf("Failed to load docks and routes: %v", err)
	}

	var publisher service.Publisher
	gcsTimeout := time.Duration(cfg.GroundStation.Timeout) * time.Second
	if cfg.GroundStation.WebhookURL != "" {
		gcs := client.NewGroundStationClient(cfg.GroundStation.WebhookURL, gcsTimeout, logger)
		if _, err := gcs.CheckHealth(context.Background()); err != nil {
			logger.Warnf("Ground station not reachable yet: %v", err)
		}
		publisher = gcs
	}

	mon := monitor.New(detector, logger, monitor.Options{
		Period: cfg.Monitor.Period,
		Buffer: cfg.Monitor.AlertBuffer,
	})
	fleetService.AttachMonitor(mon)
	hub := service.NewAlertHub(logger, publisher, gcsTimeout)
	grpcHealth := handler.NewGRPCHealth(logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler.NewFleetHandler(fleetService, hub, dbCheck, logger).RegisterRoutes(router)
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Boat Safety API Server",
			"version": handler.Version,
			"status":  "running",
		})
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}
	grpcLis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		logger.Fatalf("Failed to listen for gRPC: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	if err := mon.Start(ctx); err != nil {
		logger.Fatalf("Failed to start safety monitor: %v", err)
	}

	eg.Go(func() error {
		if err := hub.Run(ctx, mon.Alerts()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		grpcHealth.Track(ctx, mon.Done())
		return nil
	})
	eg.Go(func() error {
		return grpcHealth.Serve(grpcLis)
	})
	eg.Go(func() error {
		logger.Infof("HTTP API listening on %s/api/v1", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")

		mon.Stop()
		grpcHealth.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return mon.Wait(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

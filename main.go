package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/qr-restaurant/config"
	"github.com/yeremiapane/qr-restaurant/database"
	"github.com/yeremiapane/qr-restaurant/live"
	"github.com/yeremiapane/qr-restaurant/report"
	"github.com/yeremiapane/qr-restaurant/router"
	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

func main() {
	printReport := flag.Bool("report", false, "print the table status board and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	if err := database.Seed(context.Background(), db, cfg.TableCount, cfg.SeedMenu); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed: %v", err)
	}

	hub := live.NewHub()
	deps := router.NewDeps(cfg, db, hub)

	if *printReport {
		views, err := deps.Admin.ListTablesWithActiveOrder(context.Background())
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to load tables: %v", err)
		}
		if err := report.Board(os.Stdout, views); err != nil {
			utils.ErrorLogger.Fatal(err)
		}
		return
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.SetupRouter(deps)

	monitor := services.NewDashboardMonitor(deps.Admin, hub)
	monitor.Start()
	defer monitor.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s (QR codes point to %s)", cfg.Port, cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.InfoLogger.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Forced shutdown: %v", err)
	}
}

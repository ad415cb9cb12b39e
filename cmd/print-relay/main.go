package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/printing"
	"ms-boxoffice/internal/printing/relayserver"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	log := logger.NewLogger("print-relay")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	gin.SetMode(gin.ReleaseMode)
	printer := &printing.DevicePrinter{Target: cfg.Printer.Device, Timeout: cfg.Printer.Timeout}
	handler := relayserver.NewRelayHandler(printer, cfg.Printer.Device, log)

	addr := os.Getenv("RELAY_ADDR")
	if addr == "" {
		addr = ":3001"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Print relay on %s writing to %s", addr, cfg.Printer.Device))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Relay shutdown failed: %v", err))
		return
	}
	log.Info("APP", "Print relay stopped")
}

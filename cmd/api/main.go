package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-food-scanner/internal/config"
	"go-food-scanner/internal/container"
	"go-food-scanner/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	gin.SetMode(gin.ReleaseMode)

	// Initialize dependency injection container
	c, err := container.NewContainer(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}

	if !cfg.HasGeminiCredentials() {
		logger.Warn("GEMINI_API_KEY is not set; analyze requests will fail until it is configured")
	}

	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      c.Handler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"address":          cfg.ServerAddress(),
			"timeout":          cfg.RequestTimeout.String(),
			"analysis_timeout": cfg.AnalysisTimeout.String(),
			"model":            cfg.GeminiModel,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

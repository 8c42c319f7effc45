package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/cutout/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the puzzle piece API",
	Long: `Start an HTTP server that provides REST API endpoints for silhouette
tracing and polygon decomposition.

The server provides the following endpoints:
  POST /trace        - Process an uploaded image into puzzle pieces
  POST /decompose    - Split a caller-supplied polygon
  GET  /ws/decompose - Stream decomposition progress over WebSocket
  GET  /health       - Health check endpoint
  GET  /metrics      - Prometheus metrics

Examples:
  cutout serve
  cutout serve --port 8080
  cutout serve --host 0.0.0.0 --port 3000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}

		maxUploadSize := int64(cfg.Server.MaxUploadMB)
		if cmd.Flags().Changed("max-upload-size") {
			v, _ := cmd.Flags().GetInt("max-upload-size")
			maxUploadSize = int64(v)
		}

		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		requestsPerMinute, _ := cmd.Flags().GetInt("requests-per-minute")
		maxUploadPerDay, _ := cmd.Flags().GetInt64("max-upload-per-day")

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pl, err := buildPipeline(cmd, cfg)
		if err != nil {
			return err
		}

		serverConfig := server.Config{
			Host:              host,
			Port:              port,
			CORSOrigin:        corsOrigin,
			MaxUploadMB:       maxUploadSize,
			TimeoutSec:        timeout,
			PipelineConfig:    pl.Config(),
			RequestsPerMinute: requestsPerMinute,
			MaxUploadPerDayMB: maxUploadPerDay,
		}

		srv, err := server.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		mux := http.NewServeMux()
		srv.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("Starting server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 20, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 60, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	// Pipeline customization flags shared with trace
	serveCmd.Flags().IntP("pieces", "n", 12, "default target number of puzzle pieces")
	serveCmd.Flags().Int("tolerance", 50, "default background matching tolerance (0-100)")
	serveCmd.Flags().Bool("interior-sampling", false, "also keep saturated interior colors far from the background")
	serveCmd.Flags().Float64("simplify", 0.0025, "polygon simplification tolerance in normalized units")
	serveCmd.Flags().Int("max-dimension", 1024, "maximum working resolution (0 = no scaling)")
	// Rate limiting flags
	serveCmd.Flags().Int("requests-per-minute", 0, "maximum requests per minute per client (0 = unlimited)")
	serveCmd.Flags().Int64("max-upload-per-day", 0, "maximum upload volume per day per client in MB (0 = unlimited)")
}

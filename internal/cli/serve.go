package cli

import (
	"context"
	"fmt"
	"time"

	"whitecarrot/internal/config"
	"whitecarrot/internal/observability"
	"whitecarrot/internal/server"
	"whitecarrot/internal/store"
	"whitecarrot/internal/upload"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ATS HTTP server",
		Long: `Start the HTTP server that backs the careers pages, the candidate portal
and the recruiter dashboard.

Available endpoints:
- GET  /: liveness banner
- GET  /health: health check with circuit breaker states
- GET  /stats: screening thresholds, proctoring and rate limiting info
- POST /api/upload: resume and image uploads, served back under /uploads/
- /api/companies, /api/jobs, /api/candidates, /api/applications,
  /api/recruiters, /api/questions, /api/proctoring: the ATS REST API

TLS Configuration:
- Use --cert-file and --key-file to serve HTTPS
- Use --watch-certs to reload the pair when it changes on disk`,
		RunE: runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().String("host", "", "Host to bind to (default from config)")
	cmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().Bool("watch-certs", false, "Reload the certificate pair when it changes on disk")
	return cmd
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetString("port")
	}
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("cert-file") {
		cfg.Server.TLS.CertFile, _ = flags.GetString("cert-file")
		cfg.Server.TLS.Enabled = true
	}
	if flags.Changed("key-file") {
		cfg.Server.TLS.KeyFile, _ = flags.GetString("key-file")
		cfg.Server.TLS.Enabled = true
	}
	if flags.Changed("watch-certs") {
		cfg.Server.TLS.Watch, _ = flags.GetBool("watch-certs")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := dependencies(cmd)
	if err != nil {
		return err
	}

	applyServeFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	svc, closeService, err := openService(cmd.Context(), cfg, logger, om)
	if err != nil {
		return err
	}
	defer closeWithLog(logger, closeService)

	if cfg.Store.Backend == store.BackendFile && cfg.Store.File.Watch {
		watchCtx, stopWatch := context.WithCancel(cmd.Context())
		defer stopWatch()
		go func() {
			if err := svc.Store().Watch(watchCtx); err != nil {
				logger.LogError(err, "Store watcher stopped")
			}
		}()
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	deps := server.Dependencies{
		Service:       svc,
		Uploader:      upload.New(cfg.Upload, om, logger),
		Observability: om,
	}
	return server.NewServer(cfg, serverCfg, deps, logger).Start()
}

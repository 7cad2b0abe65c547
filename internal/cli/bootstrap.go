package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"whitecarrot/internal/ats"
	"whitecarrot/internal/common"
	"whitecarrot/internal/config"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/notify"
	"whitecarrot/internal/observability"
	"whitecarrot/internal/proctoring"
	"whitecarrot/internal/store"

	"github.com/spf13/cobra"
)

// openStore connects to the configured backend. om may be nil.
func openStore(ctx context.Context, cfg *config.Config, logger *errors.Logger, om *observability.ObservabilityManager, seedOnEmpty bool) (*store.Store, error) {
	persister, err := store.NewPersister(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	opts := store.Options{
		SeedOnEmpty: seedOnEmpty,
		Latency:     cfg.Store.SimulatedLatency,
		Logger:      logger,
	}
	if om != nil {
		opts.Recorder = om
	}

	st, err := store.New(ctx, persister, opts)
	if err != nil {
		if closeErr := persister.Close(); closeErr != nil {
			logger.LogError(closeErr, "Failed to close store backend")
		}
		return nil, err
	}
	logger.Info("Store opened", "backend", cfg.Store.Backend, "key", cfg.Store.Key)
	return st, nil
}

func proctoringRegistry(cfg config.ProctoringConfig, logger *errors.Logger) *proctoring.Registry {
	return proctoring.NewRegistry(proctoring.RegistryConfig{
		Thresholds:      proctoringThresholds(cfg),
		CriticalLimit:   cfg.CriticalLimit,
		SessionTTL:      cfg.SessionTTL,
		CleanupInterval: cfg.CleanupInterval,
	}, logger)
}

func proctoringThresholds(cfg config.ProctoringConfig) proctoring.Thresholds {
	return proctoring.Thresholds{
		NoFace:        cfg.NoFaceFrames,
		MultipleFaces: cfg.MultipleFacesFrames,
		LookingAway:   cfg.LookingAwayFrames,
		Speaking:      cfg.SpeakingFrames,
	}
}

// openService wires the store, the notifier and the proctoring registry
// into an ATS service. Close releases all of them.
func openService(ctx context.Context, cfg *config.Config, logger *errors.Logger, om *observability.ObservabilityManager) (*ats.Service, func() error, error) {
	st, err := openStore(ctx, cfg, logger, om, cfg.Store.SeedOnEmpty)
	if err != nil {
		return nil, nil, err
	}

	notifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	opts := ats.Options{
		Screening: &cfg.Screening,
		Notifier:  notifier,
		Registry:  proctoringRegistry(cfg.Proctoring, logger),
		Logger:    logger,
	}
	if om != nil {
		opts.Metrics = om
	}
	svc := ats.New(st, opts)

	closeFn := func() error {
		return stderrors.Join(svc.Close(), st.Close())
	}
	return svc, closeFn, nil
}

func closeWithLog(logger *errors.Logger, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.LogError(err, "Failed to release resources")
	}
}

// addOutputFlags registers --output and --format on cmd
func addOutputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutput applies the configured default format and points stdout
// output at the command's writer
func resolveOutput(cmd *cobra.Command, cmdConfig *common.CommandConfig) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	cmdConfig.Stdout = cmd.OutOrStdout()
	return common.ResolveOutputFormat(cmdConfig, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
}

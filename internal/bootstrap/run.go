package bootstrap

import (
	"context"
	"fmt"

	infralogger "github.com/jonesrussell/engagement-advisor/infrastructure/logger"
	"github.com/jonesrussell/engagement-advisor/infrastructure/profiling"
)

// Serve loads everything and serves HTTP until ctx ends or a signal arrives.
func Serve(ctx context.Context, configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	profiling.StartPprofServer(log)
	profiler, err := profiling.StartPyroscope(cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", infralogger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	components, err := NewComponents(ctx, cfg, log)
	if err != nil {
		log.Error("Startup failed", infralogger.Error(err))
		return err
	}
	defer func() {
		if closeErr := components.Close(); closeErr != nil {
			log.Warn("Shutdown cleanup failed", infralogger.Error(closeErr))
		}
	}()

	server, err := NewServer(components)
	if err != nil {
		return err
	}

	if err := server.RunWithGracefulShutdown(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	return nil
}

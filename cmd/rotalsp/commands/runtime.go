// Package commands implements the rotalsp subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/rotalsp/pkg/config"
	"github.com/Sumatoshi-tech/rotalsp/pkg/engine"
	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
	"github.com/Sumatoshi-tech/rotalsp/pkg/version"
)

// GlobalOptions holds the persistent root flags.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// runtime bundles what a command needs once configuration is loaded.
type runtime struct {
	cfg       *config.Config
	providers observability.Providers
	engine    *engine.Engine
}

// setup loads configuration, initializes telemetry and builds the engine.
// The returned runtime must be closed.
func setup(ctx context.Context, opts *GlobalOptions, mode observability.AppMode) (*runtime, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	providers, err := observability.Init(observabilityConfig(cfg, opts, mode))
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(ctx, *cfg, engine.Deps{
		Logger: providers.Logger,
		Meter:  providers.Meter,
		Tracer: providers.Tracer,
	})
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	if providers.MetricsHandler != nil {
		go func() {
			serveErr := observability.ServeMetrics(ctx, cfg.Telemetry.MetricsAddr,
				providers.MetricsHandler, providers.Logger, namesReady(eng, len(cfg.Names.Sources) > 0))
			if serveErr != nil {
				providers.Logger.Warn("metrics endpoint stopped", "error", serveErr)
			}
		}()
	}

	return &runtime{cfg: cfg, providers: providers, engine: eng}, nil
}

// errNamesNotLoaded is reported by /readyz until a name source has loaded.
var errNamesNotLoaded = errors.New("spell names not loaded")

// namesReady reports ready once the dictionary holds names, or right away
// when no source is configured.
func namesReady(eng *engine.Engine, hasSources bool) observability.ReadyCheck {
	return func(context.Context) error {
		if !hasSources || eng.Names().Loaded() {
			return nil
		}

		return fmt.Errorf("%w: %s", errNamesNotLoaded, eng.LoadNotice())
	}
}

func (rt *runtime) close() {
	closeErr := rt.engine.Close()
	if closeErr != nil {
		rt.providers.Logger.Warn("engine close failed", "error", closeErr)
	}

	shutdownErr := rt.providers.Shutdown(context.Background())
	if shutdownErr != nil {
		rt.providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

func observabilityConfig(cfg *config.Config, opts *GlobalOptions, mode observability.AppMode) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version.Resolve()
	obs.Mode = mode
	obs.LogLevel = cfg.LogLevel()
	obs.LogJSON = cfg.Logging.JSON
	obs.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obs.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obs.MetricsAddr = cfg.Telemetry.MetricsAddr

	if obs.OTLPEndpoint == "" {
		obs.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		obs.OTLPInsecure = obs.OTLPInsecure || os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	}

	obs.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))

	// One-shot commands keep stderr for problems unless asked otherwise.
	if mode == observability.ModeCLI && obs.LogLevel < slog.LevelWarn {
		obs.LogLevel = slog.LevelWarn
	}

	switch {
	case opts.Verbose:
		obs.LogLevel = slog.LevelDebug
	case opts.Quiet:
		obs.LogLevel = slog.LevelError
	}

	return obs
}

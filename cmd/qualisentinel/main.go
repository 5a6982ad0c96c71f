package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matera-dldn/qualisentinel/internal/agent"
	"github.com/matera-dldn/qualisentinel/internal/collector"
	"github.com/matera-dldn/qualisentinel/internal/config"
	"github.com/matera-dldn/qualisentinel/internal/genai"
	"github.com/matera-dldn/qualisentinel/internal/health"
	"github.com/matera-dldn/qualisentinel/internal/logging"
	"github.com/matera-dldn/qualisentinel/internal/server"
	"github.com/matera-dldn/qualisentinel/internal/stats"
	"github.com/matera-dldn/qualisentinel/internal/telemetry"
)

func main() {
	cfg := config.ParseFlags()

	if cfg.ShowHelp {
		config.PrintUsage()
		os.Exit(0)
	}
	if cfg.ShowVersion {
		config.PrintVersion()
		os.Exit(0)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal("invalid configuration", logging.F("error", err.Error()))
	}

	logging.SetService("qualisentinel")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	statsCollector := stats.NewCollector()

	tel, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint: cfg.TelemetryEndpoint,
		Protocol: cfg.TelemetryProtocol,
		Insecure: cfg.TelemetryInsecure,
	}, statsCollector.Registry(), "qualisentinel", config.Version)
	if err != nil {
		logging.Fatal("failed to initialize telemetry", logging.F("error", err.Error()))
	}
	if tel.Enabled() {
		logging.SetHook(tel.NewLogHook())
		logging.Info("telemetry export enabled", logging.F("endpoint", cfg.TelemetryEndpoint, "protocol", cfg.TelemetryProtocol))
	}

	gen, err := genai.New(genai.Config{
		Provider:   genai.Provider(cfg.AIProvider),
		Credential: cfg.AICredential,
		Model:      cfg.AIModel,
	})
	if err != nil {
		logging.Fatal("failed to configure text generation", logging.F("error", err.Error()))
	}
	if gen != nil {
		logging.Info("text generation enabled", logging.F("provider", gen.Name()))
	}

	fetcher, err := collector.New(collector.Config{
		BaseURL:        cfg.TargetBaseURL,
		MetricsPath:    cfg.MetricsPath,
		TracePaths:     cfg.TracePaths,
		ThreadDumpPath: cfg.ThreadDumpPath,
		Timeout:        cfg.FetchTimeout,
		TLS:            cfg.TargetTLS(),
	})
	if err != nil {
		logging.Fatal("failed to configure target client", logging.F("error", err.Error()))
	}

	runner := agent.NewRunner(fetcher, gen, statsCollector)
	poller := agent.NewPoller(runner, cfg.PollInterval)
	go poller.Start(ctx)

	checker := health.New()
	checker.Register("first_cycle", poller.Ready)

	srv := server.New(cfg.ListenAddr, poller, statsCollector.Handler(), checker)
	go func() {
		if err := srv.Start(); err != nil {
			logging.Error("api server error", logging.F("error", err.Error()))
		}
	}()

	logging.Info("qualisentinel started", logging.F(
		"target", cfg.TargetBaseURL,
		"listen", cfg.ListenAddr,
		"poll_interval", cfg.PollInterval.String(),
		"ai_provider", cfg.AIProvider,
	))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.Info("shutting down")
	checker.SetShuttingDown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("api server shutdown error", logging.F("error", err.Error()))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logging.Error("telemetry shutdown error", logging.F("error", err.Error()))
	}

	logging.Info("shutdown complete")
}

// Package config resolves the agent configuration from flags, an optional
// YAML file, and credential environment variables. Resolution happens
// once, at startup; nothing else in the agent reads process-wide state.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matera-dldn/qualisentinel/internal/genai"
	apptls "github.com/matera-dldn/qualisentinel/internal/tls"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Config is the fully resolved agent configuration.
type Config struct {
	// Target application management endpoints.
	TargetBaseURL  string
	MetricsPath    string
	TracePaths     []string
	ThreadDumpPath string
	FetchTimeout   time.Duration

	// TLS toward the target (for https:// base URLs with internal CAs
	// or mTLS-protected management ports).
	TargetCAFile             string
	TargetCertFile           string
	TargetKeyFile            string
	TargetInsecureSkipVerify bool

	// Poll loop.
	PollInterval time.Duration

	// API server.
	ListenAddr string

	// Text generation (empty provider = manual mode).
	AIProvider   string
	AICredential string
	AIModel      string

	// Optional OTLP self-telemetry.
	TelemetryEndpoint string
	TelemetryProtocol string
	TelemetryInsecure bool

	ShowHelp    bool
	ShowVersion bool
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		TargetBaseURL:     "http://localhost:8088",
		MetricsPath:       "/actuator/prometheus",
		TracePaths:        []string{"/actuator/httptrace", "/actuator/http-trace"},
		ThreadDumpPath:    "/actuator/threaddump",
		FetchTimeout:      5 * time.Second,
		PollInterval:      60 * time.Second,
		ListenAddr:        ":9470",
		TelemetryProtocol: "grpc",
		TelemetryInsecure: true,
	}
}

// ParseFlags resolves the configuration: defaults, then the YAML file
// (when -config is given), then flag overrides, then credential env
// fallback. Exits on an unreadable or invalid file, matching flag
// package behavior for bad flags.
func ParseFlags() *Config {
	cfg := DefaultConfig()

	var configFile string
	var tracePaths string
	flag.StringVar(&configFile, "config", "", "Path to YAML configuration file")

	flag.StringVar(&cfg.TargetBaseURL, "target", cfg.TargetBaseURL, "Base URL of the target application's management port")
	flag.StringVar(&cfg.MetricsPath, "metrics-path", cfg.MetricsPath, "Prometheus exposition endpoint path")
	flag.StringVar(&tracePaths, "trace-paths", "", "Comma-separated HTTP trace endpoint paths, tried in order")
	flag.StringVar(&cfg.ThreadDumpPath, "threaddump-path", cfg.ThreadDumpPath, "Thread dump endpoint path")
	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Timeout per management endpoint call")
	flag.StringVar(&cfg.TargetCAFile, "target-ca-file", "", "CA certificate for verifying an https:// target")
	flag.StringVar(&cfg.TargetCertFile, "target-cert-file", "", "Client certificate for mTLS targets")
	flag.StringVar(&cfg.TargetKeyFile, "target-key-file", "", "Client private key for mTLS targets")
	flag.BoolVar(&cfg.TargetInsecureSkipVerify, "target-insecure-skip-verify", false, "Skip target certificate verification")
	flag.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Interval between diagnostic cycles")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "API server listen address")

	flag.StringVar(&cfg.AIProvider, "ai-provider", "", "Text generation provider: openai or gemini (empty = manual mode)")
	flag.StringVar(&cfg.AICredential, "ai-credential", "", "Provider API key (falls back to OPENAI_API_KEY / GEMINI_API_KEY)")
	flag.StringVar(&cfg.AIModel, "ai-model", "", "Provider model override")

	flag.StringVar(&cfg.TelemetryEndpoint, "telemetry-endpoint", "", "OTLP endpoint for self-telemetry (empty = disabled)")
	flag.StringVar(&cfg.TelemetryProtocol, "telemetry-protocol", cfg.TelemetryProtocol, "OTLP protocol: grpc or http")
	flag.BoolVar(&cfg.TelemetryInsecure, "telemetry-insecure", cfg.TelemetryInsecure, "Use insecure OTLP connection")

	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show usage")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version")

	flag.Parse()

	if configFile != "" {
		ycfg, err := LoadYAML(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "qualisentinel: %v\n", err)
			os.Exit(2)
		}
		// Flags set explicitly on the command line win over the file.
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		ycfg.apply(cfg, set)
	}

	if tracePaths != "" {
		cfg.TracePaths = splitPaths(tracePaths)
	}

	resolveCredential(cfg, os.Getenv)

	return cfg
}

// resolveCredential fills provider/credential from the environment when
// flags and file left them empty. When only a credential env var is
// present, the provider is inferred from it.
func resolveCredential(cfg *Config, getenv func(string) string) {
	if cfg.AICredential != "" && cfg.AIProvider != "" {
		return
	}

	switch cfg.AIProvider {
	case string(genai.ProviderOpenAI):
		if cfg.AICredential == "" {
			cfg.AICredential = getenv("OPENAI_API_KEY")
		}
	case string(genai.ProviderGemini):
		if cfg.AICredential == "" {
			cfg.AICredential = getenv("GEMINI_API_KEY")
		}
	case "":
		// Inference only fills both fields from scratch; an explicit
		// credential without a provider is left for Validate to reject.
		if cfg.AICredential != "" {
			return
		}
		if key := getenv("OPENAI_API_KEY"); key != "" {
			cfg.AIProvider = string(genai.ProviderOpenAI)
			cfg.AICredential = key
		} else if key := getenv("GEMINI_API_KEY"); key != "" {
			cfg.AIProvider = string(genai.ProviderGemini)
			cfg.AICredential = key
		}
	}
}

// TargetTLS builds the scrape-client TLS settings. TLS engages only for
// https:// targets.
func (c *Config) TargetTLS() apptls.ClientConfig {
	return apptls.ClientConfig{
		Enabled:            strings.HasPrefix(c.TargetBaseURL, "https://"),
		CAFile:             c.TargetCAFile,
		CertFile:           c.TargetCertFile,
		KeyFile:            c.TargetKeyFile,
		InsecureSkipVerify: c.TargetInsecureSkipVerify,
	}
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	if c.TargetBaseURL == "" {
		return fmt.Errorf("target base URL must not be empty")
	}
	if !strings.HasPrefix(c.TargetBaseURL, "http://") && !strings.HasPrefix(c.TargetBaseURL, "https://") {
		return fmt.Errorf("target base URL %q must start with http:// or https://", c.TargetBaseURL)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll interval %s is below 1s", c.PollInterval)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	switch c.AIProvider {
	case "", string(genai.ProviderOpenAI), string(genai.ProviderGemini):
	default:
		return fmt.Errorf("unknown ai provider %q", c.AIProvider)
	}
	if c.AIProvider == "" && c.AICredential != "" {
		return fmt.Errorf("ai credential given without a provider")
	}
	switch c.TelemetryProtocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("unknown telemetry protocol %q", c.TelemetryProtocol)
	}
	return nil
}

// PrintUsage writes flag usage to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, "qualisentinel - diagnóstico de performance para aplicações Spring Boot\n\n")
	flag.PrintDefaults()
}

// PrintVersion writes the build version to stdout.
func PrintVersion() {
	fmt.Printf("qualisentinel %s\n", Version)
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

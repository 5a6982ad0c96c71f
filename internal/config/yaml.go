package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig mirrors the configuration file structure.
type YAMLConfig struct {
	Target    TargetYAML    `yaml:"target"`
	Poll      PollYAML      `yaml:"poll"`
	Listen    ListenYAML    `yaml:"listen"`
	AI        AIYAML        `yaml:"ai"`
	Telemetry TelemetryYAML `yaml:"telemetry"`
}

// TargetYAML holds target application endpoint settings.
type TargetYAML struct {
	BaseURL        string   `yaml:"base_url"`
	MetricsPath    string   `yaml:"metrics_path"`
	TracePaths     []string `yaml:"trace_paths"`
	ThreadDumpPath string   `yaml:"threaddump_path"`
	FetchTimeout   Duration `yaml:"fetch_timeout"`
	TLS            TLSYAML  `yaml:"tls"`
}

// TLSYAML holds TLS settings for https:// targets.
type TLSYAML struct {
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify"`
}

// PollYAML holds poll loop settings.
type PollYAML struct {
	Interval Duration `yaml:"interval"`
}

// ListenYAML holds API server settings.
type ListenYAML struct {
	Address string `yaml:"address"`
}

// AIYAML holds text-generation provider settings.
type AIYAML struct {
	Provider   string `yaml:"provider"`
	Credential string `yaml:"credential"`
	Model      string `yaml:"model"`
}

// TelemetryYAML holds OTLP self-telemetry settings.
type TelemetryYAML struct {
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"`
	Insecure *bool  `yaml:"insecure"`
}

// Duration supports human-readable durations ("5s", "1m") in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LoadYAML reads and parses a configuration file.
func LoadYAML(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := &YAMLConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// apply overlays file values onto cfg, skipping fields whose flag was set
// explicitly on the command line.
func (y *YAMLConfig) apply(cfg *Config, setFlags map[string]bool) {
	if y.Target.BaseURL != "" && !setFlags["target"] {
		cfg.TargetBaseURL = y.Target.BaseURL
	}
	if y.Target.MetricsPath != "" && !setFlags["metrics-path"] {
		cfg.MetricsPath = y.Target.MetricsPath
	}
	if len(y.Target.TracePaths) > 0 && !setFlags["trace-paths"] {
		cfg.TracePaths = y.Target.TracePaths
	}
	if y.Target.ThreadDumpPath != "" && !setFlags["threaddump-path"] {
		cfg.ThreadDumpPath = y.Target.ThreadDumpPath
	}
	if y.Target.FetchTimeout > 0 && !setFlags["fetch-timeout"] {
		cfg.FetchTimeout = time.Duration(y.Target.FetchTimeout)
	}
	if y.Target.TLS.CAFile != "" && !setFlags["target-ca-file"] {
		cfg.TargetCAFile = y.Target.TLS.CAFile
	}
	if y.Target.TLS.CertFile != "" && !setFlags["target-cert-file"] {
		cfg.TargetCertFile = y.Target.TLS.CertFile
	}
	if y.Target.TLS.KeyFile != "" && !setFlags["target-key-file"] {
		cfg.TargetKeyFile = y.Target.TLS.KeyFile
	}
	if y.Target.TLS.InsecureSkipVerify != nil && !setFlags["target-insecure-skip-verify"] {
		cfg.TargetInsecureSkipVerify = *y.Target.TLS.InsecureSkipVerify
	}
	if y.Poll.Interval > 0 && !setFlags["poll-interval"] {
		cfg.PollInterval = time.Duration(y.Poll.Interval)
	}
	if y.Listen.Address != "" && !setFlags["listen"] {
		cfg.ListenAddr = y.Listen.Address
	}
	if y.AI.Provider != "" && !setFlags["ai-provider"] {
		cfg.AIProvider = y.AI.Provider
	}
	if y.AI.Credential != "" && !setFlags["ai-credential"] {
		cfg.AICredential = y.AI.Credential
	}
	if y.AI.Model != "" && !setFlags["ai-model"] {
		cfg.AIModel = y.AI.Model
	}
	if y.Telemetry.Endpoint != "" && !setFlags["telemetry-endpoint"] {
		cfg.TelemetryEndpoint = y.Telemetry.Endpoint
	}
	if y.Telemetry.Protocol != "" && !setFlags["telemetry-protocol"] {
		cfg.TelemetryProtocol = y.Telemetry.Protocol
	}
	if y.Telemetry.Insecure != nil && !setFlags["telemetry-insecure"] {
		cfg.TelemetryInsecure = *y.Telemetry.Insecure
	}
}

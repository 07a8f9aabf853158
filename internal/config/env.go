package config

import (
	"flag"
	"strings"
)

// Environment variables consulted by ApplyEnv and LoadFlags.
const (
	EnvConfig         = "EMP_CONFIG"
	EnvDBDSN          = "EMP_DB_DSN"
	EnvSFTPPassword   = "EMP_SFTP_PASSWORD"
	EnvMetricsBackend = "METRICS_BACKEND"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvStatsdAddr     = "DD_AGENT_ADDR"
)

// ApplyEnv overlays secrets from the environment onto p. Environment values
// win over the file so credentials can stay out of version control.
func ApplyEnv(p *Pipeline, getenv func(string) string) {
	if v := getenv(EnvDBDSN); v != "" {
		p.Storage.DB.DSN = v
	}
	if v := getenv(EnvSFTPPassword); v != "" {
		p.Source.SFTP.Password = v
	}
}

// Flags holds command-line settings.
type Flags struct {
	ConfigPath     string
	ValidateOnly   bool
	Once           bool
	MetricsBackend string // "none", "prometheus", or "datadog"
	PushgatewayURL string
	StatsdAddr     string
	Verbose        bool
}

// LoadFlags defines the command's flags on fs with environment fallbacks
// from getenv, then parses args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFlags(fs *flag.FlagSet, getenv func(string) string, args []string) (*Flags, error) {
	f := &Flags{}

	envOrDefault := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}

	fs.StringVar(&f.ConfigPath, "config", envOrDefault(EnvConfig, "configs/pipelines/empmaster.json"), "Path to the pipeline JSON file.")
	fs.BoolVar(&f.ValidateOnly, "validate", false, "Validate the pipeline file and exit.")
	fs.BoolVar(&f.Once, "once", false, "Run once and exit even when the pipeline has a schedule.")
	fs.StringVar(&f.MetricsBackend, "metrics-backend", envOrDefault(EnvMetricsBackend, "none"), "Metrics backend: none, prometheus, or datadog.")
	fs.StringVar(&f.PushgatewayURL, "pushgateway-url", getenv(EnvPushgatewayURL), "Prometheus Pushgateway URL (prometheus backend).")
	fs.StringVar(&f.StatsdAddr, "statsd-addr", envOrDefault(EnvStatsdAddr, "127.0.0.1:8125"), "DogStatsD address (datadog backend).")
	fs.BoolVar(&f.Verbose, "v", false, "Log per-column null counts and parser details.")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.MetricsBackend = strings.ToLower(strings.TrimSpace(f.MetricsBackend))
	return f, nil
}

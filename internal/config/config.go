package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/ticketlens/internal/analysis"
)

// Global configuration structure.
type Global struct {
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	// Insight thresholds
	CostPerHour              float64 `mapstructure:"cost_per_hour" yaml:"cost_per_hour"`
	Currency                 string  `mapstructure:"currency" yaml:"currency"`
	ResolutionBenchmarkHours float64 `mapstructure:"resolution_benchmark_hours" yaml:"resolution_benchmark_hours"`
	SLATargetPct             float64 `mapstructure:"sla_target_pct" yaml:"sla_target_pct"`
	TopN                     int     `mapstructure:"top_n" yaml:"top_n"`
	HistogramBins            int     `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	SampleRows               int     `mapstructure:"sample_rows" yaml:"sample_rows"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Local upload server
	ServeAddr   string `mapstructure:"serve_addr" yaml:"serve_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"output_dir", "sheet_name", "sheet_index",
	"cost_per_hour", "currency", "resolution_benchmark_hours", "sla_target_pct",
	"top_n", "histogram_bins", "sample_rows",
	"log_level", "log_format", "serve_addr", "max_upload_mb",
}

// AnalysisOptions maps the configured thresholds onto analysis options.
func (c *Global) AnalysisOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if c.TopN > 0 {
		opt.TopN = c.TopN
	}
	if c.HistogramBins > 0 {
		opt.HistogramBins = c.HistogramBins
	}
	if c.SampleRows > 0 {
		opt.SampleRows = c.SampleRows
	}
	if c.CostPerHour > 0 {
		opt.CostPerHour = c.CostPerHour
	}
	if c.ResolutionBenchmarkHours > 0 {
		opt.BenchmarkHours = c.ResolutionBenchmarkHours
	}
	if c.SLATargetPct > 0 {
		opt.SLATargetPct = c.SLATargetPct
	}
	if c.Currency != "" {
		opt.Currency = c.Currency
	}
	return opt
}

// Dir returns ~/.ticketlens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".ticketlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.ticketlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// A .env file in the working directory is applied to the environment first.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TICKETLENS")
	v.AutomaticEnv()

	v.SetDefault("output_dir", ".")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 0)
	v.SetDefault("cost_per_hour", 50.0)
	v.SetDefault("currency", "RM")
	v.SetDefault("resolution_benchmark_hours", 48.0)
	v.SetDefault("sla_target_pct", 80.0)
	v.SetDefault("top_n", 10)
	v.SetDefault("histogram_bins", 30)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("serve_addr", "127.0.0.1:8080")
	v.SetDefault("max_upload_mb", 32)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

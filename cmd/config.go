package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/ticketlens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TicketLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		fmt.Printf("output_dir: %s\n", c.OutputDir)
		fmt.Printf("sheet_name: %s\n", c.SheetName)
		fmt.Printf("sheet_index: %d\n", c.SheetIndex)
		fmt.Printf("cost_per_hour: %.2f\n", c.CostPerHour)
		fmt.Printf("currency: %s\n", c.Currency)
		fmt.Printf("resolution_benchmark_hours: %.2f\n", c.ResolutionBenchmarkHours)
		fmt.Printf("sla_target_pct: %.2f\n", c.SLATargetPct)
		fmt.Printf("top_n: %d\n", c.TopN)
		fmt.Printf("histogram_bins: %d\n", c.HistogramBins)
		fmt.Printf("sample_rows: %d\n", c.SampleRows)
		fmt.Printf("log_level: %s\n", c.LogLevel)
		fmt.Printf("log_format: %s\n", c.LogFormat)
		fmt.Printf("serve_addr: %s\n", c.ServeAddr)
		fmt.Printf("max_upload_mb: %d\n", c.MaxUploadMB)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := settings()
		switch key {
		case "output_dir":
			c.OutputDir = val
		case "sheet_name":
			c.SheetName = val
		case "sheet_index":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for sheet_index: %v", val)
			}
			c.SheetIndex = i
		case "cost_per_hour", "resolution_benchmark_hours", "sla_target_pct":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for %s: %v", key, val)
			}
			if key == "sla_target_pct" && f > 100 {
				return fmt.Errorf("sla_target_pct must be between 0 and 100")
			}
			switch key {
			case "cost_per_hour":
				c.CostPerHour = f
			case "resolution_benchmark_hours":
				c.ResolutionBenchmarkHours = f
			default:
				c.SLATargetPct = f
			}
		case "currency":
			c.Currency = val
		case "top_n", "histogram_bins", "sample_rows", "max_upload_mb":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for %s: %v", key, val)
			}
			switch key {
			case "top_n":
				c.TopN = i
			case "histogram_bins":
				c.HistogramBins = i
			case "sample_rows":
				c.SampleRows = i
			default:
				c.MaxUploadMB = i
			}
		case "log_level":
			switch strings.ToLower(val) {
			case "debug", "info", "warn", "error":
				c.LogLevel = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		case "log_format":
			switch strings.ToLower(val) {
			case "console", "json":
				c.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use console or json)", val)
			}
		case "serve_addr":
			c.ServeAddr = val
		default:
			return fmt.Errorf("unknown key: %s (valid: %s)", key, strings.Join(cfgpkg.Keys, ", "))
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ticketlens/internal/analysis"
	"github.com/KaramelBytes/ticketlens/internal/report"
	"github.com/KaramelBytes/ticketlens/internal/utils"
)

var (
	repOutput string
	repStart  string
	repEnd    string
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Write a PDF report with charts and recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, res, err := loadAndClean(args[0])
		if err != nil {
			return err
		}
		t, err := filterByFlags(res.Table, repStart, repEnd)
		if err != nil {
			return err
		}
		ins := analysis.Insights(t, settings().AnalysisOptions())
		var buf bytes.Buffer
		if err := report.Write(&buf, t, ins, report.Options{Source: filepath.Base(args[0]), Logger: log}); err != nil {
			return err
		}
		out := utils.OutputPath(repOutput, settings().OutputDir, "ticket_report.pdf")
		if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("✓ Wrote report with %d insights to %s\n", len(ins), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "output PDF path (default <output_dir>/ticket_report.pdf)")
	reportCmd.Flags().StringVar(&repStart, "start", "", "start date DD/MM/YYYY (inclusive)")
	reportCmd.Flags().StringVar(&repEnd, "end", "", "end date DD/MM/YYYY (inclusive)")
}

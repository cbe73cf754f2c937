package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ticketlens/internal/analysis"
	"github.com/KaramelBytes/ticketlens/internal/utils"
)

var summaryOutput string

var summaryCmd = &cobra.Command{
	Use:   "summary <file>",
	Short: "Show before/after cleaning statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, res, err := loadAndClean(args[0])
		if err != nil {
			return err
		}
		rep := analysis.Summarize(filepath.Base(args[0]), raw, res, settings().AnalysisOptions())
		md := rep.Markdown()
		if summaryOutput == "" {
			fmt.Println(md)
			return nil
		}
		if err := utils.SafeWriteFile(summaryOutput, []byte(md)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("✓ Wrote summary to %s\n", summaryOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&summaryOutput, "output", "o", "", "optional path to write the summary (Markdown)")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ticketlens/internal/analysis"
	"github.com/KaramelBytes/ticketlens/internal/utils"
)

var (
	insStart  string
	insEnd    string
	insJSON   bool
	insOutput string
)

var insightsCmd = &cobra.Command{
	Use:   "insights <file>",
	Short: "Show overview metrics and rule-based recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, res, err := loadAndClean(args[0])
		if err != nil {
			return err
		}
		t, err := filterByFlags(res.Table, insStart, insEnd)
		if err != nil {
			return err
		}
		ov := analysis.Overview(t)
		ins := analysis.Insights(t, settings().AnalysisOptions())

		var out []byte
		if insJSON {
			out, err = utils.PrettyJSON(struct {
				Overview analysis.OverviewStats `json:"overview"`
				Insights []analysis.Insight     `json:"insights"`
			}{ov, ins})
			if err != nil {
				return err
			}
		} else {
			out = []byte(analysis.InsightsMarkdown(ov, ins))
		}
		if insOutput == "" {
			fmt.Println(string(out))
			return nil
		}
		if err := utils.SafeWriteFile(insOutput, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("✓ Wrote %d insights to %s\n", len(ins), insOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().StringVar(&insStart, "start", "", "start date DD/MM/YYYY (inclusive)")
	insightsCmd.Flags().StringVar(&insEnd, "end", "", "end date DD/MM/YYYY (inclusive)")
	insightsCmd.Flags().BoolVar(&insJSON, "json", false, "emit JSON instead of text")
	insightsCmd.Flags().StringVarP(&insOutput, "output", "o", "", "optional path to write the insights")
}

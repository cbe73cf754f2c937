package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ticketlens/internal/table"
	"github.com/KaramelBytes/ticketlens/internal/utils"
)

var cleanOutput string

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a ticket export and write it as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, res, err := loadAndClean(args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := table.WriteCSV(&buf, res.Table); err != nil {
			return err
		}
		out := utils.OutputPath(cleanOutput, settings().OutputDir, "cleaned_file.csv")
		if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
			return fmt.Errorf("write cleaned csv: %w", err)
		}
		fmt.Printf("✓ Cleaned %d rows x %d columns -> %s\n", res.Table.NumRows(), res.Table.NumCols(), out)
		if len(res.Dropped) > 0 {
			fmt.Printf("  Dropped sparse columns: %s\n", strings.Join(res.Dropped, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "output CSV path (default <output_dir>/cleaned_file.csv)")
}

package commands

import (
	"github.com/spf13/cobra"
)

var historyMax int

var historyCmd = &cobra.Command{
	Use:   "history <model> <id>",
	Short: "Print a record's full lifetime, newest first",
	Long: `Print every committed version of a record, newest first, spanning
renames and surviving individually malformed historical snapshots.
Equivalent to 'get --all-versions'.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFactory()
		if err != nil {
			return err
		}
		m, err := f.GetModel(args[0])
		if err != nil {
			return err
		}
		records, err := m.FindVersions(args[1], historyMax)
		if err != nil {
			return err
		}
		return printJSON(records)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyMax, "max", 0, "keep only the newest N entries")
	rootCmd.AddCommand(historyCmd)
}

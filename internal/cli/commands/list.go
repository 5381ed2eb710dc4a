package commands

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <model>",
	Short: "List every record currently in a collection",
	Long: `List every record present in the collection at the head snapshot.
Records whose content is not valid JSON are omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFactory()
		if err != nil {
			return err
		}
		m, err := f.GetModel(args[0])
		if err != nil {
			return err
		}
		records, err := m.All()
		if err != nil {
			return err
		}
		return printJSON(records)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetAll bool

var resetCmd = &cobra.Command{
	Use:   "reset [<model> <id>]",
	Short: "Discard uncommitted local changes to records",
	Long: `Restore a record's working-copy file to its last committed state,
or with --all discard every uncommitted change across the whole working
area.

Examples:
  gitrecord reset plans basic
  gitrecord reset --all`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFactory()
		if err != nil {
			return err
		}

		if resetAll {
			if len(args) != 0 {
				return errors.New("--all takes no arguments")
			}
			if err := f.ResetAll(); err != nil {
				return err
			}
			fmt.Println("working area restored to last committed state")
			return nil
		}

		if len(args) != 2 {
			return errors.New("expected <model> <id>, or --all")
		}
		m, err := f.GetModel(args[0])
		if err != nil {
			return err
		}
		rec, err := m.Find(args[1])
		if err != nil {
			return err
		}
		if err := f.Reset(rec); err != nil {
			return err
		}
		fmt.Printf("%s restored to version %s\n", m.PathFor(rec.ID), rec.Version)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "discard all uncommitted local state")
	rootCmd.AddCommand(resetCmd)
}

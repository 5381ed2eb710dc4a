package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aawilson/git-larder/internal/larder"
)

var (
	flagVersion     string
	flagAllVersions bool
	flagMax         int
)

var getCmd = &cobra.Command{
	Use:   "get <model> <id>",
	Short: "Fetch a record's current or historical value",
	Long: `Fetch a record from a collection.

Without modifiers, prints the value at the head snapshot. With --version,
prints the value at the commit where the record held exactly that blob
fingerprint. With --all-versions, prints the record's full lifetime,
newest first.

If the record was deleted, the last committed value (when still
recoverable) is reported alongside the error.`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	f, err := openFactory()
	if err != nil {
		return err
	}
	m, err := f.GetModel(args[0])
	if err != nil {
		return err
	}

	records, err := m.FindRecords(args[1], larder.FindOptions{
		Version:     flagVersion,
		AllVersions: flagAllVersions,
		Max:         flagMax,
	})
	if err != nil {
		if last, ok := larder.LastKnownValue(err); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\nlast known value:\n", err)
			return printJSON(last)
		}
		return err
	}

	if flagAllVersions {
		return printJSON(records)
	}
	if len(records) == 0 {
		return errors.New("no record found")
	}
	return printJSON(records[0])
}

func init() {
	getCmd.Flags().StringVar(&flagVersion, "version", "", "blob fingerprint of the version to fetch")
	getCmd.Flags().BoolVar(&flagAllVersions, "all-versions", false, "fetch every historical version, newest first")
	getCmd.Flags().IntVar(&flagMax, "max", 0, "with --all-versions, keep only the newest N entries")
	rootCmd.AddCommand(getCmd)
}

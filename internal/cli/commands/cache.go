package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheFull bool

var cacheCmd = &cobra.Command{
	Use:   "cache <model>",
	Short: "Build the collection's object cache and print a summary",
	Long: `Walk the entire commit history of a collection and build the
deduplicated object cache: one entry per (id, version) pair ever
committed, plus a map from each live record id to the cache key of its
current value.

By default prints cache statistics; --full dumps every cached body.`,
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
		cache, idToKey, err := m.BuildObjectCache()
		if err != nil {
			return err
		}

		if cacheFull {
			return printJSON(map[string]any{
				"cache":        cache,
				"id_to_latest": idToKey,
			})
		}
		fmt.Printf("model:         %s\n", m.Name())
		fmt.Printf("cache entries: %d\n", len(cache))
		fmt.Printf("live records:  %d\n", len(idToKey))
		return nil
	},
}

func init() {
	cacheCmd.Flags().BoolVar(&cacheFull, "full", false, "dump every cached body instead of a summary")
	rootCmd.AddCommand(cacheCmd)
}

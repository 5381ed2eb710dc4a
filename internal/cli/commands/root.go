// Copyright 2016 Aaron Wilson and Habla, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aawilson/git-larder/internal/larder"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version info for the --version flag
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

var (
	flagRepo     string
	flagRef      string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "gitrecord",
	Short: "Query versioned JSON records stored in a git repository",
	Long: `gitrecord reads a git repository as a document store: collections
("models") are directories, records are JSON files, and every committed
state of a record stays queryable.

Examples:
  # Current value of a record
  gitrecord get plans basic

  # A specific historical version by blob fingerprint
  gitrecord get plans basic --version 669cffe0f71050aa398a37669f820b464e87b5aa

  # Full lifetime of a record, newest first
  gitrecord history plans basic --max 10

  # Everything currently in a collection
  gitrecord list plans

  # Restore a locally modified record to its committed state
  gitrecord reset plans basic`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		cfg, err := LoadConfig(flagRepo)
		if err != nil {
			return err
		}
		if flagRef == "" {
			flagRef = cfg.Ref
		}
		level := flagLogLevel
		if level == "" {
			level = cfg.Logging
		}
		applyLogLevel(level)
		return nil
	},
}

// applyLogLevel configures logrus from a config/flag value (case
// insensitive).
func applyLogLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "none", "":
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
	log.SetOutput(os.Stderr)
}

// openFactory opens the record factory for the configured repository and
// ref.
func openFactory() (*larder.Factory, error) {
	return larder.Open(flagRepo, &larder.Options{Ref: flagRef})
}

// printJSON renders a value as indented JSON on stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRepo, "repo", "r", ".", "path to the record repository")
	rootCmd.PersistentFlags().StringVar(&flagRef, "ref", "", "ref to query against (default HEAD)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: none, info, debug, trace")
}

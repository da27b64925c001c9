/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tomoncle/structure/database"
	"github.com/tomoncle/structure/utils"
)

type VersionInfo struct {
	Version string
	Commit  string
}

// NewRootCommand builds the structure command tree.
func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "structure",
		Short:         "Inspect and maintain entity tables",
		Long:          "Run criteria queries against entity tables, check database health and reset tables or their auto increment sequences.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(path)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return database.CloseDB()
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "console log format (text, json)")

	_ = viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", cmd.PersistentFlags().Lookup("log-format"))

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	cmd.AddCommand(
		newVersionCommand(info),
		newHealthCommand(),
		newMigrateCommand(),
		newTruncateCommand(),
		newAutoIncrementCommand(),
		newQueryCommand(),
	)
	return cmd
}

func newVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "structure %s (%s)\n", info.Version, info.Commit)
			return err
		},
	}
}

// connect loads the configuration, sets up logging and opens the global
// database. Logs go to stderr so command output stays parseable.
func connect() (*AppConfig, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	utils.SetConsoleOutput(os.Stderr)
	utils.ConfigureConsoleLogFormat(cfg.Log.Format)
	utils.ConfigureFileLog(cfg.Log.File)
	utils.ConfigureLogLevel(cfg.Log.Level)

	if _, err := database.InitDB(&cfg.Database); err != nil {
		return nil, err
	}
	return cfg, nil
}

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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomoncle/structure/database"
)

func newTruncateCommand() *cobra.Command {
	var (
		reset bool
		pk    string
	)
	cmd := &cobra.Command{
		Use:   "truncate TABLE",
		Short: "Remove every row of a table",
		Long: `Remove every row of a table.

MySQL and PostgreSQL refuse to truncate a table referenced by foreign keys.
With --reset-auto-increment the next generated id is 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := connect(); err != nil {
				return err
			}
			ctx, db, table := cmd.Context(), database.GetDB(), args[0]
			if err := database.TruncateTable(ctx, db, table); err != nil {
				return err
			}
			if reset {
				if err := database.SetAutoIncrement(ctx, db, table, pk, 1); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "truncated %s\n", table)
			return err
		},
	}
	cmd.Flags().BoolVar(&reset, "reset-auto-increment", false, "restart the id sequence at 1")
	cmd.Flags().StringVar(&pk, "pk", "id", "primary key column")
	return cmd
}

func newAutoIncrementCommand() *cobra.Command {
	var pk string
	cmd := &cobra.Command{
		Use:   "auto-increment TABLE N",
		Short: "Set the next generated id of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid auto increment %q: %w", args[1], err)
			}
			if _, err := connect(); err != nil {
				return err
			}
			if err := database.SetAutoIncrement(cmd.Context(), database.GetDB(), args[0], pk, n); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s auto increment set to %d\n", args[0], n)
			return err
		},
	}
	cmd.Flags().StringVar(&pk, "pk", "id", "primary key column")
	return cmd
}

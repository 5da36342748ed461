package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear recorded progress",
	}
	stateCmd.AddCommand(newStateShowCommand(ctx))
	stateCmd.AddCommand(newStateResetCommand(ctx))
	return stateCmd
}

func newStateShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show processed and failed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger, true)
			if err != nil {
				return err
			}
			defer closeQuietly(store)
			if err := store.Load(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			processed := store.ProcessedFiles()
			failed := store.FailedEntries()
			fmt.Fprintf(out, "State: %s\n", store.Path())
			fmt.Fprintf(out, "Processed: %d\n", len(processed))
			fmt.Fprintf(out, "Failed: %d\n", len(failed))

			if len(processed) > 0 {
				rows := make([][]string, 0, len(processed))
				for _, name := range processed {
					rows = append(rows, []string{name})
				}
				fmt.Fprintln(out, renderTable([]string{"Processed file"}, rows, nil))
			}
			if len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for name := range failed {
					names = append(names, name)
				}
				sort.Strings(names)
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{name, failed[name]})
				}
				fmt.Fprintln(out, renderTable([]string{"Failed file", "Reason"}, rows, nil))
			}
			return nil
		},
	}
}

func newStateResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget all recorded progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger, false)
			if err != nil {
				return err
			}
			defer closeQuietly(store)
			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", store.Path())
			return nil
		},
	}
}

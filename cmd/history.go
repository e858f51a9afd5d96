package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var historyFlags struct {
	format string
	clear  bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently viewed gyms",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		local := newLocal(ctx)
		defer local.Close()

		if historyFlags.clear {
			if err := local.ClearHistory(ctx); err != nil {
				return err
			}
			fmt.Println("history cleared")
			return nil
		}

		entries, err := local.History(ctx)
		if err != nil {
			return err
		}

		if historyFlags.format != "table" {
			return writeOut(historyFlags.format, entries)
		}
		for _, e := range entries {
			fmt.Printf("%-32s  %-28s  %s\n", e.Slug, e.Name, e.ViewedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyFlags.format, "format", "table", "output format (table|json|yaml)")
	historyCmd.Flags().BoolVar(&historyFlags.clear, "clear", false, "clear the view history")
	rootCmd.AddCommand(historyCmd)
}

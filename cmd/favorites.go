package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var favoritesFormat string

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorite gyms",
	Long:  "Favorites are stored server-side keyed by this device's anonymous id and mirrored in the local cache for offline reads.",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		local := newLocal(ctx)
		defer local.Close()
		deviceID, err := local.DeviceID(ctx)
		if err != nil {
			return err
		}

		favs, err := newClient().Favorites(ctx, deviceID)
		if err != nil {
			// Offline or backend down: the local mirror still answers.
			zap.L().Warn("favorites: server unavailable, using local cache", zap.Error(err))
			favs, err = local.Favorites(ctx)
			if err != nil {
				return err
			}
		}

		if favoritesFormat != "table" {
			return writeOut(favoritesFormat, favs)
		}
		for _, f := range favs {
			fmt.Printf("%-32s  %s\n", f.Slug, f.AddedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Add a favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		local := newLocal(ctx)
		defer local.Close()
		deviceID, err := local.DeviceID(ctx)
		if err != nil {
			return err
		}

		if err := newClient().AddFavorite(ctx, deviceID, args[0]); err != nil {
			return err
		}
		if err := local.AddFavorite(ctx, args[0]); err != nil {
			zap.L().Warn("favorites: local mirror write failed", zap.Error(err))
		}
		fmt.Printf("added %s\n", args[0])
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <slug>",
	Short: "Remove a favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		local := newLocal(ctx)
		defer local.Close()
		deviceID, err := local.DeviceID(ctx)
		if err != nil {
			return err
		}

		if err := newClient().RemoveFavorite(ctx, deviceID, args[0]); err != nil {
			return err
		}
		if err := local.RemoveFavorite(ctx, args[0]); err != nil {
			zap.L().Warn("favorites: local mirror delete failed", zap.Error(err))
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

func init() {
	favoritesCmd.PersistentFlags().StringVar(&favoritesFormat, "format", "table", "output format (table|json|yaml)")
	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd)
	rootCmd.AddCommand(favoritesCmd)
}

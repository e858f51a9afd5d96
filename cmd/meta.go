package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trainmap/gymdex/internal/model"
)

var metaFlags struct {
	pref   string
	format string
}

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "List the filter options (prefectures, categories, cities)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		client := newClient()

		var (
			prefs  []model.Prefecture
			cats   []model.Category
			cities []model.City
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			prefs, err = client.Prefectures(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			cats, err = client.Categories(gctx)
			return err
		})
		if metaFlags.pref != "" {
			g.Go(func() error {
				var err error
				cities, err = client.Cities(gctx, metaFlags.pref)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := struct {
			Prefectures []model.Prefecture `json:"prefectures" yaml:"prefectures"`
			Categories  []model.Category   `json:"categories" yaml:"categories"`
			Cities      []model.City       `json:"cities,omitempty" yaml:"cities,omitempty"`
		}{prefs, cats, cities}

		if metaFlags.format != "table" {
			return writeOut(metaFlags.format, out)
		}

		fmt.Println("prefectures:")
		for _, p := range prefs {
			fmt.Printf("  %-16s %s\n", p.Slug, p.Name)
		}
		fmt.Println("categories:")
		for _, c := range cats {
			fmt.Printf("  %-16s %s\n", c.Slug, c.Name)
		}
		if len(cities) > 0 {
			fmt.Printf("cities in %s:\n", metaFlags.pref)
			for _, c := range cities {
				fmt.Printf("  %-16s %s\n", c.Slug, c.Name)
			}
		}
		return nil
	},
}

func init() {
	metaCmd.Flags().StringVar(&metaFlags.pref, "pref", "", "also list cities of this prefecture")
	metaCmd.Flags().StringVar(&metaFlags.format, "format", "table", "output format (table|json|yaml)")
	rootCmd.AddCommand(metaCmd)
}

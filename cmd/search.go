package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trainmap/gymdex/internal/filter"
	"github.com/trainmap/gymdex/internal/model"
)

var searchFlags struct {
	pref     string
	city     string
	cats     []string
	sort     string
	order    string
	page     int
	limit    int
	lat      float64
	lng      float64
	radiusKm int
	format   string
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the gym directory",
	Long:  "Runs a paginated directory search. Invalid filter values are normalized to defaults rather than rejected.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		st := filter.State{
			Pref:       searchFlags.pref,
			City:       searchFlags.city,
			Categories: searchFlags.cats,
			Page:       searchFlags.page,
			Limit:      searchFlags.limit,
			DistanceKm: searchFlags.radiusKm,
		}
		if len(args) == 1 {
			st.Query = args[0]
		}
		if s, ok := model.ParseSort(searchFlags.sort); ok {
			st.Sort = s
			st.Order = s.DefaultOrder()
		}
		if o, ok := model.ParseOrder(searchFlags.order); ok {
			st.Order = o
		}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			lat, lng := searchFlags.lat, searchFlags.lng
			st.Lat, st.Lng = &lat, &lng
		}
		st = st.Normalized()

		res, err := newClient().SearchGyms(ctx, st)
		if err != nil {
			return err
		}

		if searchFlags.format != "table" {
			return writeOut(searchFlags.format, res)
		}

		fmt.Printf("%d gyms (page %d, %d per page)\n\n", res.Meta.Total, res.Meta.Page, res.Meta.PerPage)
		for _, g := range res.Items {
			line := fmt.Sprintf("%-28s  %s, %s", g.Name, g.Pref, g.City)
			if g.DistanceKm > 0 {
				line += fmt.Sprintf("  %.1fkm", g.DistanceKm)
			}
			if len(g.Categories) > 0 {
				line += "  [" + strings.Join(g.Categories, ", ") + "]"
			}
			fmt.Println(line)
		}
		if res.Meta.HasNext {
			fmt.Printf("\nmore results: --page %d\n", res.Meta.Page+1)
		}
		return nil
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.pref, "pref", "", "prefecture slug")
	f.StringVar(&searchFlags.city, "city", "", "city slug (requires --pref)")
	f.StringSliceVar(&searchFlags.cats, "cats", nil, "equipment category slugs")
	f.StringVar(&searchFlags.sort, "sort", "", "sort key (distance|popular|fresh|newest)")
	f.StringVar(&searchFlags.order, "order", "", "sort direction (asc|desc)")
	f.IntVar(&searchFlags.page, "page", 1, "result page")
	f.IntVar(&searchFlags.limit, "limit", 0, "results per page")
	f.Float64Var(&searchFlags.lat, "lat", 0, "search center latitude")
	f.Float64Var(&searchFlags.lng, "lng", 0, "search center longitude")
	f.IntVar(&searchFlags.radiusKm, "radius", 0, "search radius in km")
	f.StringVar(&searchFlags.format, "format", "table", "output format (table|json|yaml)")
	rootCmd.AddCommand(searchCmd)
}

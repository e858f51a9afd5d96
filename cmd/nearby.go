package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trainmap/gymdex/internal/cluster"
	"github.com/trainmap/gymdex/internal/geo"
	"github.com/trainmap/gymdex/internal/session"
)

var nearbyFlags struct {
	lat      float64
	lng      float64
	radiusKm int
	zoom     float64
	format   string
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List map markers around a point, clustered for the given zoom",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		items, err := newClient().AllNearbyGyms(ctx, nearbyFlags.lat, nearbyFlags.lng, nearbyFlags.radiusKm)
		if err != nil {
			return err
		}

		points := make([]cluster.Point, len(items))
		for i, g := range items {
			points[i] = cluster.Point{ID: g.ID, Lng: g.Longitude, Lat: g.Latitude}
		}
		ix := cluster.Build(points, clusterOptions())
		zap.L().Debug("nearby markers indexed",
			zap.Int("points", len(points)),
			zap.Bool("flat", ix.Flat()),
		)

		bbox := geo.BBoxAround(nearbyFlags.lat, nearbyFlags.lng, float64(nearbyFlags.radiusKm))
		markers := ix.Query(bbox, nearbyFlags.zoom)

		switch nearbyFlags.format {
		case "geojson":
			return writeOut("geojson", session.MarkersToGeoJSON(markers))
		case "json", "yaml":
			return writeOut(nearbyFlags.format, markers)
		}

		for _, m := range markers {
			if m.Type == cluster.MarkerCluster {
				fmt.Printf("cluster  %-8s  %d gyms  (%.5f, %.5f)\n", m.ID, m.Count, m.Lat, m.Lng)
				continue
			}
			fmt.Printf("gym      %-8s  (%.5f, %.5f)\n", m.ID, m.Lat, m.Lng)
		}
		return nil
	},
}

func clusterOptions() cluster.Options {
	opts := cluster.DefaultOptions()
	if cfg.Cluster.MinPoints > 0 {
		opts.MinPointsToCluster = cfg.Cluster.MinPoints
	}
	if cfg.Cluster.PixelRadius > 0 {
		opts.PixelRadius = cfg.Cluster.PixelRadius
	}
	if cfg.Cluster.MaxZoom > 0 {
		opts.MaxZoom = cfg.Cluster.MaxZoom
	}
	return opts
}

func init() {
	f := nearbyCmd.Flags()
	f.Float64Var(&nearbyFlags.lat, "lat", 0, "center latitude")
	f.Float64Var(&nearbyFlags.lng, "lng", 0, "center longitude")
	f.IntVar(&nearbyFlags.radiusKm, "radius", 10, "radius in km")
	f.Float64Var(&nearbyFlags.zoom, "zoom", 13, "map zoom level for clustering")
	f.StringVar(&nearbyFlags.format, "format", "table", "output format (table|json|yaml|geojson)")
	_ = nearbyCmd.MarkFlagRequired("lat")
	_ = nearbyCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(nearbyCmd)
}

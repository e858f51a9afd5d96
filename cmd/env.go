package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/trainmap/gymdex/internal/api"
	"github.com/trainmap/gymdex/internal/resilience"
	"github.com/trainmap/gymdex/internal/storage"
)

// newClient builds the backend client from config.
func newClient() api.Client {
	retry := resilience.DefaultPolicy()
	if cfg.API.MaxRetries > 0 {
		retry.MaxAttempts = cfg.API.MaxRetries
	}

	opts := []api.Option{
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithRetryPolicy(retry),
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(cfg.API.RateLimit))
	}
	if cfg.Admin.Token != "" {
		opts = append(opts, api.WithAdminToken(cfg.Admin.Token))
	}
	return api.New(opts...)
}

// newLocal opens the device-local store, degrading to memory on failure.
func newLocal(ctx context.Context) storage.Local {
	return storage.Open(ctx, cfg.Storage.Path)
}

// apiTimeout returns the per-command request budget.
func apiTimeout() time.Duration {
	if cfg.API.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.API.TimeoutSecs) * time.Second
}

// writeOut renders v to stdout in the requested format.
func writeOut(format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return eris.Wrap(enc.Encode(v), "encode yaml")
	case "json", "geojson":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	default:
		return eris.Errorf("unknown format %q", format)
	}
}

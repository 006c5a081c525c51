package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/arcgeocode/internal/adapter/arcgis"
	"github.com/couchcryptid/arcgeocode/internal/config"
	"github.com/couchcryptid/arcgeocode/internal/domain"
	"github.com/couchcryptid/arcgeocode/internal/observability"
)

// app carries what every subcommand needs once flags and environment are
// resolved.
type app struct {
	cfg      *config.Config
	fieldMap *config.FieldMap
	logger   *slog.Logger
}

// geocoder builds the ArcGIS client, wrapped in the reverse cache when
// enabled.
func (a *app) geocoder(metrics *observability.Metrics) domain.Geocoder {
	client := arcgis.NewClient(a.cfg.ArcGISURL, a.cfg.ArcGISToken, a.cfg.ArcGISTimeout, metrics, a.logger)
	if !a.cfg.CacheEnabled {
		return client
	}
	return arcgis.NewCachedGeocoder(client, a.cfg.CacheSize, metrics)
}

type rootFlags struct {
	url         string
	token       string
	timeout     time.Duration
	logLevel    string
	logFormat   string
	fieldMap    string
	concurrency int
	noCache     bool
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     app
	)

	root := &cobra.Command{
		Use:   "arcgeocode",
		Short: "Batch geocoding against ArcGIS GeocodeServer",
		Long: `
arcgeocode sends address tables to an ArcGIS GeocodeServer in one
geocodeAddresses call, and coordinate tables through concurrent
reverseGeocode calls. Results are written as GeoJSON.

Settings come from the environment (ARCGIS_GEOCODE_URL, ARCGIS_TOKEN, ...)
and can be overridden with flags.
`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, flags)

			fm, err := config.LoadFieldMap(cfg.FieldMapFile)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.fieldMap = fm
			a.logger = observability.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.url, "url", "", "GeocodeServer URL (default $ARCGIS_GEOCODE_URL or the World Geocoding Service)")
	pf.StringVar(&flags.token, "token", "", "access token (default $ARCGIS_TOKEN)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout (default $ARCGIS_TIMEOUT or 30s)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "", "json or text")
	pf.StringVar(&flags.fieldMap, "field-map", "", "YAML file mapping input columns to address fields")
	pf.IntVar(&flags.concurrency, "concurrency", 0, "maximum concurrent reverse calls (default $REVERSE_CONCURRENCY or 8)")
	pf.BoolVar(&flags.noCache, "no-cache", false, "disable the reverse geocoding cache")

	root.AddCommand(
		newGeocodeCmd(&a),
		newReverseCmd(&a),
		newServeCmd(&a),
	)
	return root
}

// applyFlags overrides environment settings with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f rootFlags) {
	changed := cmd.Flags().Changed
	if changed("url") {
		cfg.ArcGISURL = f.url
	}
	if changed("token") {
		cfg.ArcGISToken = f.token
	}
	if changed("timeout") && f.timeout > 0 {
		cfg.ArcGISTimeout = f.timeout
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("field-map") {
		cfg.FieldMapFile = f.fieldMap
	}
	if changed("concurrency") && f.concurrency > 0 {
		cfg.ReverseConcurrency = f.concurrency
	}
	if f.noCache {
		cfg.CacheEnabled = false
	}
}

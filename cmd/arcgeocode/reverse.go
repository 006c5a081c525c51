package main

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/arcgeocode/internal/dispatch"
	"github.com/couchcryptid/arcgeocode/internal/domain"
	"github.com/couchcryptid/arcgeocode/internal/hostio"
	"github.com/couchcryptid/arcgeocode/internal/observability"
)

type reverseFlags struct {
	output       string
	sr           string
	outSR        string
	langCode     string
	forStorage   bool
	featureType  string
	locationType string
	labelValues  string
}

func newReverseCmd(a *app) *cobra.Command {
	var flags reverseFlags

	cmd := &cobra.Command{
		Use:   "reverse <input>",
		Short: "Reverse geocode a table of points",
		Long: `
Reads points from the x/y columns of a CSV file or Arrow IPC stream, or
from a point shapefile, and looks up the address at each one with
concurrent reverseGeocode calls. Failed lookups keep their row with a
null geometry and an "error" property.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sr, err := parseSpatialReference(flags.sr)
			if err != nil {
				return err
			}
			in, err := readInput(args[0], a.fieldMap)
			if err != nil {
				return err
			}
			if sr == nil {
				sr = in.SpatialReference
			}
			if sr == nil {
				return errors.New("input has no spatial reference: pass --sr")
			}
			points := in.Points(*sr)
			if points == nil {
				return errors.New("input has no x/y columns or point geometry")
			}

			opts := domain.ReverseOptions{
				OutSR:                *sr,
				FeatureType:          domain.ParseFeatureType(flags.featureType),
				LocationType:         domain.ParseLocationType(flags.locationType),
				PreferredLabelValues: domain.ParsePreferredLabelValues(flags.labelValues),
			}
			out, err := parseSpatialReference(flags.outSR)
			if err != nil {
				return err
			}
			if out != nil {
				opts.OutSR = *out
			}
			if cmd.Flags().Changed("lang") {
				opts.LangCode = &flags.langCode
			}
			if cmd.Flags().Changed("for-storage") {
				opts.ForStorage = &flags.forStorage
			}

			metrics := observability.NewMetricsWith(prometheus.NewRegistry())
			dopts := []dispatch.Option{dispatch.WithConcurrency(a.cfg.ReverseConcurrency)}
			if isatty.IsTerminal(os.Stderr.Fd()) {
				bar := progressbar.NewOptions(len(points),
					progressbar.OptionSetDescription("Reverse geocoding"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
				dopts = append(dopts, dispatch.WithProgress(func() { _ = bar.Add(1) }))
			}

			d := dispatch.New(a.geocoder(metrics), a.logger, metrics, dopts...)
			outcomes := d.Reverse(cmd.Context(), points, opts)
			a.logger.Info("reverse geocoded", "points", len(points), "failed", dispatch.Failed(outcomes))

			return writeOutput(flags.output, cmd.OutOrStdout(), hostio.ReverseTable(outcomes, opts.OutSR))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "-", "GeoJSON output file")
	f.StringVar(&flags.sr, "sr", "", "spatial reference of the input points (default: the shapefile's .prj)")
	f.StringVar(&flags.outSR, "out-sr", "", "spatial reference of returned locations (default: --sr)")
	f.StringVar(&flags.langCode, "lang", "", "language of returned addresses (BCP 47)")
	f.BoolVar(&flags.forStorage, "for-storage", false, "results will be stored")
	f.StringVar(&flags.featureType, "feature-type", "", "StreetInt, DistanceMarker, StreetAddress, StreetName, POI, Subaddress, PointAddress, Postal or Locality")
	f.StringVar(&flags.locationType, "location-type", "", "rooftop or street")
	f.StringVar(&flags.labelValues, "preferred-label", "", "postalCity or localCity")
	return cmd
}

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/arcgeocode/internal/dispatch"
	"github.com/couchcryptid/arcgeocode/internal/hostio"
	"github.com/couchcryptid/arcgeocode/internal/observability"
)

func newGeocodeCmd(a *app) *cobra.Command {
	var (
		output   string
		srFlag   string
		outSR    string
		byRecord bool
	)

	cmd := &cobra.Command{
		Use:   "geocode <input>",
		Short: "Geocode an address table in one batch call",
		Long: `
Reads addresses from a CSV file, an Arrow IPC stream or a shapefile and
geocodes them with a single geocodeAddresses call. Columns are matched to
address fields by name (address, city, postal, ...) or through --field-map.
x/y columns, or shapefile points, become location hints and need a spatial
reference from --sr or the shapefile's .prj.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sr, err := parseSpatialReference(srFlag)
			if err != nil {
				return err
			}
			out, err := parseSpatialReference(outSR)
			if err != nil {
				return err
			}

			in, err := readInput(args[0], a.fieldMap)
			if err != nil {
				return err
			}
			records, err := in.Build(sr)
			if err != nil {
				return err
			}

			metrics := observability.NewMetricsWith(prometheus.NewRegistry())
			d := dispatch.New(a.geocoder(metrics), a.logger, metrics)
			resp, err := d.Forward(cmd.Context(), records, out)
			if err != nil {
				return err
			}
			a.logger.Info("geocoded",
				"records", len(records),
				"candidates", len(resp.Locations),
				"failures", len(resp.Failures),
			)

			table := hostio.ForwardTable(resp)
			if byRecord {
				table = hostio.ForwardTableByRow(resp, len(records))
			}
			return writeOutput(output, cmd.OutOrStdout(), table)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "-", "GeoJSON output file")
	f.StringVar(&srFlag, "sr", "", "spatial reference of x/y columns (wkid, EPSG:code, WKT or JSON)")
	f.StringVar(&outSR, "out-sr", "", "spatial reference of returned locations")
	f.BoolVar(&byRecord, "by-record", true, "align output features with input rows by ResultID")
	return cmd
}

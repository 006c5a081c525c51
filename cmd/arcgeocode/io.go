package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/couchcryptid/arcgeocode/internal/config"
	"github.com/couchcryptid/arcgeocode/internal/domain"
	"github.com/couchcryptid/arcgeocode/internal/hostio"
)

// readInput loads a table by file extension: .csv, .arrow/.arrows/.ipc
// (IPC stream) or .shp.
func readInput(path string, fm *config.FieldMap) (hostio.Input, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".shp" {
		return hostio.ReadShapefile(path, fm)
	}

	var read func(io.Reader) ([]arrow.RecordBatch, error)
	switch ext {
	case ".csv":
		read = func(r io.Reader) ([]arrow.RecordBatch, error) { return hostio.ReadCSV(r, fm) }
	case ".arrow", ".arrows", ".ipc":
		read = hostio.ReadArrowStream
	default:
		return hostio.Input{}, fmt.Errorf("unsupported input %s: want .csv, .arrow or .shp", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return hostio.Input{}, err
	}
	defer f.Close()

	recs, err := read(f)
	if err != nil {
		return hostio.Input{}, err
	}
	defer hostio.Release(recs)
	return hostio.ColumnsFromRecords(recs, fm)
}

// writeOutput writes GeoJSON to path, or to stdout when path is empty or "-".
func writeOutput(path string, stdout io.Writer, t hostio.Table) error {
	if path == "" || path == "-" {
		return t.WriteGeoJSON(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteGeoJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseSpatialReference resolves a flag value; empty means unset.
func parseSpatialReference(s string) (*domain.SpatialReference, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	sr, err := domain.ResolveSpatialReference(s)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

package hostio

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/couchcryptid/arcgeocode/internal/config"
	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// ReadCSV reads a headed CSV file into one record. Empty cells and "NA"
// are nulls. Columns that feed address fields are always read as strings
// so postal codes keep their leading zeros. The caller releases the
// returned records.
func ReadCSV(r io.Reader, fm *config.FieldMap) ([]arrow.RecordBatch, error) {
	rdr := csv.NewInferringReader(r,
		csv.WithHeader(true),
		csv.WithNullReader(true, "", "NA"),
		csv.WithChunk(-1),
		csv.WithColumnTypes(addressColumnTypes(fm)),
	)
	defer rdr.Release()
	return collect(rdr.Next, rdr.Record, rdr.Err, "csv")
}

// ReadArrowStream reads every record of an Arrow IPC stream. The caller
// releases the returned records.
func ReadArrowStream(r io.Reader) ([]arrow.RecordBatch, error) {
	rdr, err := ipc.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open arrow stream: %w", err)
	}
	defer rdr.Release()
	return collect(rdr.Next, rdr.Record, rdr.Err, "arrow stream")
}

func collect(next func() bool, record func() arrow.RecordBatch, errf func() error, source string) ([]arrow.RecordBatch, error) {
	var recs []arrow.RecordBatch
	for next() {
		rec := record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := errf(); err != nil {
		Release(recs)
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return recs, nil
}

func addressColumnTypes(fm *config.FieldMap) map[string]arrow.DataType {
	types := make(map[string]arrow.DataType)
	for name, column := range fm.Fields {
		if _, ok := domain.ParseField(name); ok {
			types[column] = arrow.BinaryTypes.String
		}
	}
	for _, f := range domain.Fields() {
		for _, name := range f.Names() {
			if _, ok := fm.Lookup(name); ok {
				types[name] = arrow.BinaryTypes.String
			}
		}
	}
	return types
}

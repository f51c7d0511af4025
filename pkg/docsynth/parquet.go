package docsynth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Column names of the parquet layout.
const (
	ColumnFilename   = "filename"
	ColumnImageData  = "image_data"
	ColumnAnnoString = "anno_string"
)

// ErrMissingColumn is returned when a parquet file lacks one of the
// required columns.
var ErrMissingColumn = errors.New("missing column")

type stringValuer interface {
	arrow.Array
	Value(i int) string
}

type bytesValuer interface {
	arrow.Array
	Value(i int) []byte
}

// ReadParquetFiles reads every file in order and concatenates the records.
func ReadParquetFiles(ctx context.Context, paths []string) ([]Record, error) {
	var records []Record
	for _, path := range paths {
		recs, err := ReadParquet(ctx, path)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

// ReadParquet loads all records from a single parquet file.
func ReadParquet(ctx context.Context, path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()

	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	defer tbl.Release()

	records, err := recordsFromTable(tbl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func recordsFromTable(tbl arrow.Table) ([]Record, error) {
	var idx [3]int
	for i, name := range []string{ColumnFilename, ColumnImageData, ColumnAnnoString} {
		found := tbl.Schema().FieldIndices(name)
		if len(found) == 0 {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
		idx[i] = found[0]
	}

	tr := array.NewTableReader(tbl, 1024)
	defer tr.Release()

	records := make([]Record, 0, tbl.NumRows())
	for tr.Next() {
		batch := tr.Record()

		names, ok := batch.Column(idx[0]).(stringValuer)
		if !ok {
			return nil, fmt.Errorf("column %q: unsupported type %s", ColumnFilename, batch.Column(idx[0]).DataType())
		}
		images, err := imageBytes(batch.Column(idx[1]))
		if err != nil {
			return nil, err
		}
		annos, ok := batch.Column(idx[2]).(array.ListLike)
		if !ok {
			return nil, fmt.Errorf("column %q: unsupported type %s", ColumnAnnoString, batch.Column(idx[2]).DataType())
		}
		lines, ok := annos.ListValues().(stringValuer)
		if !ok {
			return nil, fmt.Errorf("column %q: unsupported element type %s", ColumnAnnoString, annos.ListValues().DataType())
		}

		for i := 0; i < names.Len(); i++ {
			rec := Record{Filename: names.Value(i)}
			if !images.IsNull(i) {
				rec.ImageData = append([]byte(nil), images.Value(i)...)
			}
			if !annos.IsNull(i) {
				start, end := annos.ValueOffsets(i)
				rec.AnnoString = make([]string, 0, end-start)
				for j := start; j < end; j++ {
					rec.AnnoString = append(rec.AnnoString, lines.Value(int(j)))
				}
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// imageBytes accepts a plain binary column or a struct column with a "bytes"
// field, the layout used for image features on the Hugging Face hub.
func imageBytes(arr arrow.Array) (bytesValuer, error) {
	switch a := arr.(type) {
	case bytesValuer:
		return a, nil
	case *array.Struct:
		st := a.DataType().(*arrow.StructType)
		idx, ok := st.FieldIdx("bytes")
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, ColumnImageData+".bytes")
		}
		field, ok := a.Field(idx).(bytesValuer)
		if !ok {
			return nil, fmt.Errorf("column %q: unsupported type %s", ColumnImageData+".bytes", a.Field(idx).DataType())
		}
		return field, nil
	default:
		return nil, fmt.Errorf("column %q: unsupported type %s", ColumnImageData, arr.DataType())
	}
}

// Schema is the arrow schema written by WriteParquet.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: ColumnFilename, Type: arrow.BinaryTypes.String},
	{Name: ColumnImageData, Type: arrow.BinaryTypes.Binary},
	{Name: ColumnAnnoString, Type: arrow.ListOf(arrow.BinaryTypes.String)},
}, nil)

// WriteParquet writes records using the column layout ReadParquet expects.
// w is left open; closing it is up to the caller.
func WriteParquet(w io.Writer, records []Record) error {
	mem := memory.DefaultAllocator
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	names := b.Field(0).(*array.StringBuilder)
	images := b.Field(1).(*array.BinaryBuilder)
	annos := b.Field(2).(*array.ListBuilder)
	lines := annos.ValueBuilder().(*array.StringBuilder)

	for _, rec := range records {
		names.Append(rec.Filename)
		images.Append(rec.ImageData)
		annos.Append(true)
		for _, line := range rec.AnnoString {
			lines.Append(line)
		}
	}

	batch := b.NewRecord()
	defer batch.Release()

	tbl := array.NewTableFromRecords(Schema, []arrow.Record{batch})
	defer tbl.Release()

	chunkSize := int64(len(records))
	if chunkSize == 0 {
		chunkSize = 1
	}
	// pqarrow closes sinks that implement io.Closer
	sink := struct{ io.Writer }{w}
	if err := pqarrow.WriteTable(tbl, sink, chunkSize, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

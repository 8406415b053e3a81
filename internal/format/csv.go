// Package format implements the output-side collaborator of the pipeline:
// serializing the finished processor store to delimited files.
package format

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/amolyst/amolyst/internal/state"
)

// CSVFormatter writes one CSV file per output namespace into BaseDir. The
// header is the namespace's field-name registry in sorted order; each
// record becomes one row; fields absent from a record render empty.
type CSVFormatter struct {
	Store   state.ProcessorStore
	BaseDir string
}

// Write implements pipeline.Formatter. Namespaces are written in sorted
// order so runs are reproducible. Writing must only happen once all
// processors have completed, otherwise the registry snapshot could be
// missing columns.
func (f *CSVFormatter) Write(ctx context.Context) error {
	all := f.Store.All()
	for _, namespace := range slices.Sorted(maps.Keys(all)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.writeNamespace(namespace, all[namespace]); err != nil {
			return err
		}
	}
	return nil
}

func (f *CSVFormatter) writeNamespace(namespace string, records map[string]state.Record) error {
	path := filepath.Join(f.BaseDir, namespace+".csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeTable(file, f.Store.FieldNames(namespace), records); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// writeTable emits one table: sorted header, rows in identifier order,
// missing fields empty.
func writeTable(w io.Writer, fieldNames []string, records map[string]state.Record) error {
	columns := slices.Clone(fieldNames)
	slices.Sort(columns)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, id := range slices.Sorted(maps.Keys(records)) {
		record := records[id]
		for i, column := range columns {
			row[i] = renderValue(record[column])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// renderValue turns a record value into its CSV cell. Missing and nil
// values render empty.
func renderValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		// JSON numbers decode as float64; integral values must not grow a
		// trailing ".0" on the way out.
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	default:
		return fmt.Sprint(value)
	}
}

package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"ecorecovery/pkg/contracts/domain"
)

// utf8BOM helps spreadsheet applications recognize UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility
	BOMPrefix bool
}

// WriteCSV writes the header and one row per record, in input order, with
// the same 13 columns the dataset is loaded from.
func WriteCSV(w io.Writer, records []domain.Record, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	row := make([]string, len(domain.Columns()))
	for i, rec := range records {
		if err := writer.Write(csvRow(rec, row)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

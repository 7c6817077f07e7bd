// Package exporter writes the filtered dataset for download.
//
// Two formats are supported:
//
//   - CSV (WriteCSV): the 13 dataset columns in canonical order, numbers in
//     their shortest round-trip form, so the file loads back into the
//     dashboard unchanged
//   - XLSX (WriteXLSX): the same columns on a single "hasil" sheet, written
//     with excelize's stream writer
//
// Example usage:
//
//	w.Header().Set("Content-Type", exporter.FormatCSV.ContentType())
//	err := exporter.WriteCSV(w, view.Rows, exporter.WriteOptions{})
//
//	// From the command line tool
//	err := exporter.WriteFile("out/sibolga_filtered_results.xlsx", exporter.FormatXLSX, rows)
package exporter

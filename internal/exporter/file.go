package exporter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ecorecovery/pkg/contracts/domain"
)

// Write encodes records in the given format.
func Write(w io.Writer, format Format, records []domain.Record) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records, WriteOptions{})
	case FormatXLSX:
		return WriteXLSX(w, records)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteFile writes records to path, creating parent directories. The file
// is replaced atomically so a failed export never leaves a partial file.
func WriteFile(path string, format Format, records []domain.Record) error {
	slog.Info("Writing export file",
		slog.String("file_path", path),
		slog.String("format", string(format)),
		slog.Int("record_count", len(records)))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, format, records); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}

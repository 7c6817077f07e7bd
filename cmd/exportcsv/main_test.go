package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ecorecovery/internal/exporter"
	"ecorecovery/internal/shared/testutil"
)

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, testutil.RecordsCSV(testutil.SampleRecords()), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ECORECOVERY_DATA_URL", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestExport_CSV(t *testing.T) {
	source := writeSampleCSV(t)

	tests := []struct {
		name     string
		args     []string
		rows     int
		included []string
		excluded []string
	}{
		{
			name:     "no filters keeps everything",
			rows:     4,
			included: []string{"HH-001", "UM-002", "HH-003", "UM-004"},
		},
		{
			name:     "type filter",
			args:     []string{"--type", "business"},
			rows:     2,
			included: []string{"UM-002", "UM-004"},
			excluded: []string{"HH-001", "HH-003"},
		},
		{
			name:     "filters combine",
			args:     []string{"--type", "business", "--kelurahan", "Aek Habil"},
			rows:     1,
			included: []string{"UM-002"},
			excluded: []string{"UM-004"},
		},
		{
			name:     "repeated flag",
			args:     []string{"--priority", "Prioritas Hibah", "--priority", "Normal"},
			rows:     2,
			included: []string{"HH-001", "HH-003"},
			excluded: []string{"UM-002"},
		},
		{
			name:     "comma is part of the value",
			args:     []string{"--type", "business,household"},
			rows:     0,
			excluded: []string{"HH-001", "UM-002"},
		},
		{
			name:     "empty flag selects nothing",
			args:     []string{"--kelurahan="},
			rows:     0,
			excluded: []string{"HH-001", "UM-002"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.csv")
			args := append([]string{"--source", source, "--out", out}, tt.args...)

			stdout, err := execute(t, args...)
			require.NoError(t, err)

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			content := string(data)

			assert.Contains(t, content, "id,type,kelurahan,priority")
			for _, id := range tt.included {
				assert.Contains(t, content, id)
			}
			for _, id := range tt.excluded {
				assert.NotContains(t, content, id)
			}
			assert.Contains(t, stdout, "Entitas tampil")
			assert.Contains(t, stdout, fmt.Sprintf("Wrote %d rows", tt.rows))
		})
	}
}

func TestExport_XLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "high.xlsx")

	_, err := execute(t, "--source", writeSampleCSV(t), "--format", "xlsx", "--type", "household", "--out", out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exporter.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "HH-001", rows[1][0])
	assert.Equal(t, "HH-003", rows[2][0])
}

func TestExport_Stdout(t *testing.T) {
	stdout, err := execute(t, "--source", writeSampleCSV(t), "--out", "-", "--type", "business")
	require.NoError(t, err)

	assert.Contains(t, stdout, "UM-002")
	assert.NotContains(t, stdout, "HH-001")
	assert.NotContains(t, stdout, "Entitas tampil")
}

func TestExport_HTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testutil.RecordsCSV(testutil.SampleRecords()))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "out.csv")
	stdout, err := execute(t, "--source", srv.URL+"/data.csv", "--out", out, "--top", "5")
	require.NoError(t, err)

	assert.FileExists(t, out)
	assert.Contains(t, stdout, "Top 5 by vuln_synth")
	// Highest vulnerability first
	assert.Less(t, strings.Index(stdout, "HH-001"), strings.Index(stdout, "UM-004"))
}

func TestExport_Errors(t *testing.T) {
	source := writeSampleCSV(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no source",
			args:    []string{},
			wantErr: "no dataset source",
		},
		{
			name:    "unsupported format",
			args:    []string{"--source", source, "--format", "pdf"},
			wantErr: "unsupported export format",
		},
		{
			name:    "top below range",
			args:    []string{"--source", source, "--top", "3"},
			wantErr: "--top must be between 5 and 30",
		},
		{
			name:    "missing file",
			args:    []string{"--source", filepath.Join(t.TempDir(), "missing.csv")},
			wantErr: "failed to fetch dataset",
		},
		{
			name:    "positional arguments",
			args:    []string{"--source", source, "extra"},
			wantErr: "unknown command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append(tt.args, "--out", filepath.Join(t.TempDir(), "out.csv"))...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFilterQuery(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--kelurahan", "Aek Habil, Pancuran Gerobak",
		"--kelurahan", "Sibolga Ilir",
		"--priority=",
	}))

	q, err := filterQuery(cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"Aek Habil, Pancuran Gerobak", "Sibolga Ilir"}, q["kelurahan"])
	assert.Equal(t, []string{""}, q["priority"])
	_, hasType := q["type"]
	assert.False(t, hasType, "absent flags select every value")
}

func TestExport_LogsCarryTraceID(t *testing.T) {
	t.Setenv("ECORECOVERY_DATA_URL", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--source", writeSampleCSV(t),
		"--out", filepath.Join(t.TempDir(), "out.csv"),
		"--log-level", "info",
	})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, stderr.String(), "export written")
	assert.Contains(t, stderr.String(), "trace_id")
}

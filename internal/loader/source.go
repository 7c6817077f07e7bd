package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Source retrieves the raw CSV bytes behind a data reference.
type Source interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, ref string) ([]byte, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// DefaultMaxBytes caps the size of a fetched document.
const DefaultMaxBytes = 64 << 20

// HTTPSource fetches CSV documents with a plain GET.
type HTTPSource struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64
}

// NewHTTPSource creates an HTTPSource with the given request timeout.
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "ecorecovery-dashboard",
		MaxBytes:  DefaultMaxBytes,
	}
}

// Fetch performs the GET. Non-2xx statuses and transport failures are
// returned as *FetchError.
func (s *HTTPSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: ref, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", resp.Status)}
	}

	return readLimited(ref, resp.Body, s.MaxBytes)
}

// FileSource reads documents from the local filesystem. It serves file://
// references and is used by the offline export tool.
type FileSource struct {
	MaxBytes int64
}

// Fetch reads the file named by ref.
func (s FileSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	path := ref
	if u, err := url.Parse(ref); err == nil && u.Scheme == "file" {
		path = u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	defer f.Close()
	return readLimited(ref, f, s.MaxBytes)
}

// SheetsSource reads a Google Sheets range through the Sheets API and
// re-encodes it as CSV. References look like sheets://<spreadsheetID>/<range>;
// the first row of the range is the header.
type SheetsSource struct {
	service *sheets.Service
}

// NewSheetsSource creates a SheetsSource. Options are passed to the Sheets
// client, e.g. option.WithAPIKey or option.WithCredentialsJSON.
func NewSheetsSource(ctx context.Context, opts ...option.ClientOption) (*SheetsSource, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsSource{service: svc}, nil
}

// ParseSheetsRef splits a sheets:// reference into spreadsheet id and range.
func ParseSheetsRef(ref string) (spreadsheetID, readRange string, err error) {
	rest, ok := strings.CutPrefix(ref, "sheets://")
	if !ok {
		return "", "", fmt.Errorf("not a sheets reference: %q", ref)
	}
	spreadsheetID, readRange, _ = strings.Cut(rest, "/")
	if spreadsheetID == "" {
		return "", "", fmt.Errorf("sheets reference %q has no spreadsheet id", ref)
	}
	if readRange == "" {
		readRange = "A:M"
	} else if unescaped, uerr := url.PathUnescape(readRange); uerr == nil {
		readRange = unescaped
	}
	return spreadsheetID, readRange, nil
}

// Fetch reads the range and encodes the values as CSV.
func (s *SheetsSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	spreadsheetID, readRange, err := ParseSheetsRef(ref)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}

	resp, err := s.service.Spreadsheets.Values.Get(spreadsheetID, readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	width := 0
	if len(resp.Values) > 0 {
		width = len(resp.Values[0])
	}
	for _, row := range resp.Values {
		// Sheets drops trailing empty cells; pad to the header width.
		fields := make([]string, max(width, len(row)))
		for i, cell := range row {
			fields[i] = formatCell(cell)
		}
		if err := w.Write(fields); err != nil {
			return nil, &FetchError{URL: ref, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	return buf.Bytes(), nil
}

// formatCell renders an unformatted Sheets value the way the CSV parser
// expects it. Numbers never use exponent notation.
func formatCell(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func readLimited(ref string, r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &FetchError{URL: ref, Err: fmt.Errorf("document exceeds %d bytes", limit)}
	}
	return data, nil
}

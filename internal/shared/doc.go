// Package shared holds helpers used across the dashboard packages that
// belong to no single layer.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler, a slog.Handler that captures records so tests can
//     assert on structured log output
//   - SampleRecords and RecordsCSV, a small fixed dataset and its CSV
//     encoding for loader, service and HTTP tests
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc := NewService(logger)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "dataset loaded")
//	}
package shared

// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the data pipeline so handlers stay
// thin and the pipeline stays pure.
//
// # Available Services
//
//   - DashboardService: loads the dataset and runs filter, aggregation,
//     chart rendering and export for one request
//   - HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Loader failures are translated into the application error taxonomy of
// internal/errors: an unreachable source or non-success status becomes a
// NETWORK error, a document that is not a valid dataset becomes a PARSING
// error. The HTTP error handler maps both to 502 problem responses. A
// filter that matches nothing is not an error.
//
// # Testing
//
// Services are tested by mocking the loader:
//
//	l := new(MockDatasetLoader)
//	l.On("Load", mock.Anything, url).Return(dataset.New(records), nil)
//	svc := NewDashboardService(l, url, logger)
package services

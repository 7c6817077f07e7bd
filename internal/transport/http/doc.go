// Package http implements the HTTP handlers of the recovery dashboard. It is
// a thin layer between the chi router and the services package: handlers
// parse and validate the query state, call the dashboard service and format
// the response.
//
// # Query State
//
// Every dashboard endpoint reads the same state from the query string:
//
//	kelurahan, type, priority   repeated; absent selects every value,
//	                            present but blank selects nothing
//	top                         table size, 5 to 30
//
// # Endpoints
//
//	GET  /                                  server-rendered dashboard page
//	GET  /api/dashboard                     complete view model
//	GET  /api/filters                       filter options
//	GET  /api/records?limit=N               filtered records
//	GET  /api/summary                       scalar metrics
//	GET  /api/dataset                       dataset source and load time
//	GET  /api/charts/{kind}.{format}        priority|sensitivity, png|svg
//	GET  /api/export.{format}               csv|xlsx download
//	POST /api/refresh                       drop the cache and reload
//	POST /api/client-log                    page script diagnostics
//	GET  /api/health[/ready|/live]          health checks
//
// # Error Handling
//
// All errors are answered as RFC 7807 Problem Details through
// errors.ErrorHandler. A dataset that cannot be fetched or parsed answers
// 502:
//
//	{
//	    "type": "/errors/data/fetch-failed",
//	    "title": "Data Fetch Failed",
//	    "status": 502,
//	    "detail": "failed to fetch dataset: unexpected status 404 Not Found",
//	    "instance": "/api/dashboard"
//	}
//
// Charts and downloads are rendered into memory before the first byte is
// written, so a failure never leaves a truncated file behind.
package http

// Package app provides application initialization and lifecycle management
// for the recovery dashboard server. It wires configuration, telemetry, the
// dataset loader, the websocket hub and the HTTP handlers together.
//
// # Initialization Flow
//
//  1. Load configuration from the environment and an optional .env file
//  2. Initialize logging and OpenTelemetry
//  3. Build the dataset loader with its sources and cache
//  4. Start the websocket hub and subscribe it to dataset refreshes
//  5. Create the dashboard and health services
//  6. Set up the router, its middleware and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run returns after SIGINT or SIGTERM once in-flight requests have completed
// and websocket clients have been sent a close frame.
//
// Initialization errors are returned to the caller. The package never calls
// os.Exit.
package app

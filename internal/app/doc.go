// Package app wires the dashboard together: configuration, logging,
// OpenTelemetry, the sheet source, the report services and the HTTP router.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, SUCATA_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Build the sheet source with its timeout, instrumentation and cache layers
//	4. Create the report and health services around the source
//	5. Mount the JSON API, the exports and the HTML dashboard on a chi router
//	6. Serve until SIGINT or SIGTERM, then shut down gracefully
//
// # Usage
//
//	application, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Tests use New with an explicit configuration and an in-memory source.
package app

// Package http implements the HTTP handlers of the scrap dashboard. Handlers
// stay thin: they bind and validate query parameters, call the report
// service, and format the result as JSON, a downloadable file or an HTML page.
//
// # Routes
//
//	GET /api/health                  liveness summary
//	GET /api/health/ready            503 until the sheet can be read
//	GET /api/health/live
//	GET /api/version
//	GET /api/reports/buckets         aggregated buckets for a filter
//	GET /api/reports/daily           data behind the "Apontamento Sucata" page
//	GET /api/reports/monthly         data behind the "Acompanhamento Sucata" page
//	GET /api/reports/plates          plate codes for filter dropdowns
//	GET /api/reports/export/{format} csv, xlsx or pdf download
//	GET /metrics                     Prometheus scrape
//	GET /apontamento, /acompanhamento  HTML dashboard
//
// # Error Handling
//
// JSON endpoints answer with RFC 7807 problem details through
// errors.ErrorHandler. HTML pages map the same errors to a status code and
// render an error page instead:
//
//	{
//	    "type": "/errors/data/missing-column",
//	    "title": "Missing Column",
//	    "status": 422,
//	    "detail": "required column \"Peso\" not found in sheet header",
//	    "instance": "/api/reports/buckets"
//	}
//
// # Testing
//
// Handlers depend on ReportServiceInterface so tests can swap in a testify
// mock; httptest drives the routers.
package http

// Package services builds the dashboard reports.
//
// ReportService reads the sheet through an injected source.Source on every
// call, parses it with the scrap package and answers three kinds of question:
//
//	Query    filtered buckets grouped by day, date or plate code
//	Daily    the "Apontamento Sucata" page: one month by day plus the plate
//	         breakdown of a selected date
//	Monthly  the "Acompanhamento Sucata" page: one day chart per month
//
// Nothing is kept between calls. Any caching lives in the source layer.
//
// # Metrics
//
// A report either measures loss (scrap over weight, which needs the Peso
// column) or raw scrap. MetricAuto picks loss when the sheet has Peso.
//
// HealthService reports liveness, readiness (the sheet can be read) and
// build information.
package services

// Package source reads the raw cutting sheet.
//
// A Source returns the sheet as a scrap.Grid of formatted cell strings. It
// knows nothing about headers or columns; turning the grid into rows is the
// job of the scrap package.
//
// Implementations:
//
//	SheetsSource  Google Sheets API v4, sheet picked by name or position
//	XLSXSource    a workbook exported from the sheet
//	CSVSource     a delimited export, UTF-8 or Latin-1
//	MemorySource  a fixed grid, for tests and demos
//
// Decorators add a per-fetch deadline (WithTimeout), tracing and metrics
// (Instrument) and a short-lived cache (Cache). New assembles the chain from
// config.SourceConfig:
//
//	src, err := source.New(ctx, cfg.Source, logger,
//	    source.WithTracer(providers.Tracer),
//	    source.WithMetrics(metrics))
//
// # Errors
//
// Every failure to reach or read the underlying sheet is returned as *Error,
// which matches ErrUnavailable under errors.Is. Sources never retry.
package source

// Package exporter renders scrap reports as downloadable files.
//
// A Document is built once from a services.Report and can then be written as
// CSV, XLSX or PDF:
//
//	doc := exporter.NewDocument(report, "Apontamento Sucata", "Julho/2024")
//	err := exporter.Write(w, exporter.FormatCSV, doc)
//
// Numbers are written with Brazilian Portuguese separators. CSV files start
// with a UTF-8 BOM and use ';' so spreadsheet programs open them directly.
package exporter

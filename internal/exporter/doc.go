// Package exporter writes master tables and their aggregates to disk.
//
// CSVWriter is the low-level writer: headers, appends, streaming and a
// UTF-8 BOM so Excel opens the files as UTF-8. CorpusExporter writes the
// Film and TV master tables, top-N tables and fiscal-half summaries as CSV.
// WorkbookExporter writes both master tables into one XLSX workbook.
//
// Example usage:
//
//	exp := exporter.NewCorpusExporter(paths, logger)
//	written, err := exp.ExportCorpus(corpus, "reports")
//
//	err = exporter.NewWorkbookExporter(logger).Export(corpus, "reports/viewership.xlsx")
package exporter

// Package dataprocessing turns Netflix "What We Watched" engagement exports
// into the Film and TV master tables and the aggregates built on them.
//
// # Components
//
//  1. PeriodParser: reads the reporting window from an export filename
//  2. SheetReader: normalises the Film, TV and Engagement tabs of a workbook
//  3. GroupTitle and DetermineOwnership: derived columns of every row
//  4. ResolveRuntime: converts the Runtime column to minutes
//  5. Reconcile: backfills media and runtime for the legacy Engagement tab
//  6. Assemble: concatenates everything into a domain.Corpus
//  7. CombineWindows, GroupAndAggregate, TopN and FiscalHalfSummary
//
// Pipeline drives components 1 to 6 over a directory of exports.
//
// # Usage
//
//	p, err := dataprocessing.NewPipeline(cfg.Pipeline, logger, metrics)
//	if err != nil {
//	    return err
//	}
//	corpus, err := p.RunDir(ctx, paths.ExportsDir)
//	if err != nil {
//	    return err
//	}
//	top, err := dataprocessing.TopN(dataprocessing.GroupTable(corpus.TV),
//	    domain.TopQuery{N: 10, Metric: domain.MetricViews})
//
// # Error Handling
//
// A file whose name carries no period, or whose sheets cannot be read, is
// logged and listed in Corpus.Skipped; the build continues. Run only fails
// when its context is cancelled.
package dataprocessing

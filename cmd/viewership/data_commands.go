package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"viewership/internal/dataprocessing"
	"viewership/internal/exporter"
	"viewership/internal/validation"
	"viewership/pkg/contracts/domain"
)

type fileRow struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func newFilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List the exports in the exports folder, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.corpusService()
			if err != nil {
				return err
			}
			list, err := svc.Files(ctx.runContext(cmd))
			if err != nil {
				return err
			}

			out := make([]fileRow, 0, len(list))
			for _, f := range list {
				out = append(out, fileRow{Name: f.Name, Size: f.Size, Modified: f.ModTime})
			}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, out)
			}
			if len(out) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No exports in %s\n", ctx.paths.ExportsDir)
				return nil
			}

			rows := make([][]string, 0, len(out))
			for _, f := range out {
				rows = append(rows, []string{f.Name, formatBytes(f.Size), formatTime(f.Modified)})
			}
			printTable(cmd, []string{"File", "Size", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
			return nil
		},
	}
}

type buildResult struct {
	Film    int                  `json:"film_rows"`
	TV      int                  `json:"tv_rows"`
	Written []string             `json:"written"`
	Skipped []domain.SkippedFile `json:"skipped,omitempty"`
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir string
		topN   int
		noXLSX bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the master tables and write them as CSV and XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.runContext(cmd)
			if outDir == "" {
				outDir = ctx.paths.ReportsDir
			}
			if err := validation.NewFileValidator(ctx.logger).ValidateOutputDirectory(outDir); err != nil {
				return err
			}

			svc, err := ctx.corpusService()
			if err != nil {
				return err
			}
			corpus, err := svc.Corpus(runCtx)
			if err != nil {
				return err
			}

			csv := exporter.NewCorpusExporter(ctx.paths, ctx.logger)
			written, err := csv.ExportCorpus(corpus, outDir)
			if err != nil {
				return err
			}

			if topN > 0 {
				for _, media := range []domain.MediaType{domain.MediaFilm, domain.MediaTV} {
					table, err := svc.Top(runCtx, media, domain.TopQuery{N: topN})
					if err != nil {
						return err
					}
					path := filepath.Join(outDir, exporter.TopFileName(media))
					if err := csv.ExportTop(media, table.Rows, path); err != nil {
						return err
					}
					written = append(written, path)
				}
			}

			for _, dim := range []domain.Dimension{domain.DimensionMedia, domain.DimensionAvailability, domain.DimensionOwnership} {
				buckets, err := dataprocessing.FiscalHalfSummary(corpus.Film, corpus.TV, dim)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, exporter.FiscalHalfFileName(dim))
				if err := csv.ExportFiscalHalves(dim, buckets, path); err != nil {
					return err
				}
				written = append(written, path)
			}

			if !noXLSX {
				path := filepath.Join(outDir, exporter.WorkbookFile)
				if err := exporter.NewWorkbookExporter(ctx.logger).Export(corpus, path); err != nil {
					return err
				}
				written = append(written, path)
			}

			result := buildResult{Film: len(corpus.Film), TV: len(corpus.TV), Written: written, Skipped: corpus.Skipped}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Film rows: %s\nTV rows:   %s\n", formatCount(float64(result.Film)), formatCount(float64(result.TV)))
			for _, s := range result.Skipped {
				fmt.Fprintf(out, "Skipped %s: %s\n", s.Name, s.Reason)
			}
			for _, p := range written {
				fmt.Fprintf(out, "Wrote %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to the reports folder)")
	cmd.Flags().IntVar(&topN, "top", 10, "Rows in the top-N CSVs; 0 skips them")
	cmd.Flags().BoolVar(&noXLSX, "no-xlsx", false, "Skip the XLSX workbook")
	return cmd
}

func newTopCommand(ctx *commandContext) *cobra.Command {
	var (
		n        int
		metric   string
		minCount int
		maxCount int
	)

	cmd := &cobra.Command{
		Use:   "top <film|tv>",
		Short: "Print the top franchises of one media type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := domain.ParseMediaType(args[0])
			if err != nil {
				return err
			}
			m, err := domain.ParseMetric(metric)
			if err != nil {
				return err
			}

			svc, err := ctx.corpusService()
			if err != nil {
				return err
			}
			table, err := svc.Top(ctx.runContext(cmd), media, domain.TopQuery{
				N:        n,
				Metric:   m,
				MinCount: minCount,
				MaxCount: maxCount,
			})
			if err != nil {
				return err
			}

			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, table)
			}
			if len(table.Rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No titles match")
				return nil
			}

			rows := make([][]string, 0, len(table.Rows))
			for _, r := range table.Rows {
				rows = append(rows, []string{
					strconv.Itoa(r.Rank),
					r.GroupTitle,
					strconv.Itoa(r.TitleCount),
					formatCount(r.Views),
					formatCount(r.HoursViewed),
					formatRuntime(r.AvgRuntime),
				})
			}
			printTable(cmd,
				[]string{"#", table.GroupLabel, table.CountLabel, "Views", "Hours Viewed", "Avg Runtime (min)"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight})
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 10, "Number of rows")
	cmd.Flags().StringVarP(&metric, "metric", "m", "views", "Ranking metric: views or hours")
	cmd.Flags().IntVar(&minCount, "min-count", 0, "Minimum titles per franchise (0 disables)")
	cmd.Flags().IntVar(&maxCount, "max-count", 0, "Maximum titles per franchise (0 disables)")
	return cmd
}

func newHalvesCommand(ctx *commandContext) *cobra.Command {
	var dimension string

	cmd := &cobra.Command{
		Use:   "halves",
		Short: "Print views per fiscal half",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dim, err := domain.ParseDimension(dimension)
			if err != nil {
				return err
			}

			svc, err := ctx.corpusService()
			if err != nil {
				return err
			}
			buckets, err := svc.FiscalHalves(ctx.runContext(cmd), dim)
			if err != nil {
				return err
			}

			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, buckets)
			}
			if len(buckets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No data")
				return nil
			}

			rows := make([][]string, 0, len(buckets))
			for _, b := range buckets {
				rows = append(rows, []string{b.FiscalHalf, b.Value, formatCount(b.Views), b.Label})
			}
			printTable(cmd, []string{"Fiscal Half", string(dim), "Views", "Label"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight})
			return nil
		},
	}

	cmd.Flags().StringVarP(&dimension, "dimension", "d", "media", "Split by media, availability or ownership")
	return cmd
}

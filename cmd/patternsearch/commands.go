package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/patternsearch"
	"github.com/poiesic/patternsearch/chunk"
	"github.com/poiesic/patternsearch/config"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/eval"
	"github.com/poiesic/patternsearch/ingestion"
	"github.com/poiesic/patternsearch/normalize"
	"github.com/poiesic/patternsearch/search"
	"github.com/poiesic/patternsearch/snapshot"
	"github.com/poiesic/patternsearch/source"
)

// extraIndexOptions are appended when opening the index. Tests use it to
// substitute the embedder.
var extraIndexOptions []patternsearch.Option

func loadTable(cfg *config.Config) (*normalize.Table, error) {
	if cfg.Index.TablePath == "" {
		return normalize.DefaultTable(), nil
	}
	table, err := normalize.LoadTableFile(cfg.Index.TablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary table: %w", err)
	}
	return table, nil
}

func openIndex(c *cli.Context, cfg *config.Config, table *normalize.Table) (*patternsearch.Index, error) {
	opts := []patternsearch.Option{
		patternsearch.WithAIConfig(cfg.AIConfig()),
		patternsearch.WithTable(table),
		patternsearch.WithSpellDistance(cfg.Search.SpellDistance),
		patternsearch.WithSearchOptions(
			search.WithTimeouts(0, cfg.Search.FilterTimeout),
			search.WithDefaultLimits(cfg.Search.CandidateDocLimit, cfg.Search.CandidateRowLimit, cfg.Search.ResultLimit),
		),
	}
	opts = append(opts, extraIndexOptions...)

	idx, err := patternsearch.Open(c.Context, cfg.Root, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", cfg.Root, err)
	}
	return idx, nil
}

func ingestCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("data") {
		cfg.DataDir = c.String("data")
	}
	if c.IsSet("backend") {
		cfg.Index.FilterBackend = c.String("backend")
	}
	if c.IsSet("workers") {
		cfg.Ingest.Workers = c.Int("workers")
	}
	if c.IsSet("batch-size") {
		cfg.Ingest.BatchSize = c.Int("batch-size")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}
	reader, err := source.NewReader(cfg.DataDir, source.WithTable(table))
	if err != nil {
		return fmt.Errorf("failed to open catalogue: %w", err)
	}

	idx, err := openIndex(c, cfg, table)
	if err != nil {
		return err
	}
	defer idx.Close()

	chunker, err := chunk.New(chunk.WithWindowSize(cfg.Index.WindowSize), chunk.WithStride(cfg.Index.Stride))
	if err != nil {
		return err
	}
	opts := []ingestion.Option{
		ingestion.WithChunker(chunker),
		ingestion.WithFilterBackend(cfg.Index.FilterBackend),
		ingestion.WithBatchSize(cfg.Ingest.BatchSize),
		ingestion.WithPoolSize(cfg.Ingest.Workers),
		ingestion.WithRetryPolicy(cfg.RetryPolicy()),
		ingestion.WithKeep(cfg.Index.Keep),
	}
	if !c.Bool("quiet") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}
	if c.IsSet("version") {
		opts = append(opts, ingestion.WithSnapshotVersion(c.String("version")))
	}
	pipeline, err := idx.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	slog.Info("starting ingestion", "data", cfg.DataDir, "root", cfg.Root, "backend", cfg.Index.FilterBackend)
	report, err := pipeline.Run(c.Context, reader.Documents(c.Context))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Snapshot %s committed\n", report.Version)
	fmt.Fprintf(w, "  documents seen:     %d\n", report.Seen)
	fmt.Fprintf(w, "  indexed:            %d\n", report.Indexed)
	fmt.Fprintf(w, "  skipped malformed:  %d\n", report.SkippedMalformed)
	fmt.Fprintf(w, "  skipped empty:      %d\n", report.SkippedEmpty)
	fmt.Fprintf(w, "  chunks:             %d (dim %d)\n", report.Chunks, report.Dim)
	fmt.Fprintf(w, "  duration:           %s\n", report.Duration.Round(time.Millisecond))
	if len(report.Pruned) > 0 {
		fmt.Fprintf(w, "  pruned:             %s\n", strings.Join(report.Pruned, ", "))
	}
	return nil
}

// predicateFromFlags builds the structured filter of a search command.
func predicateFromFlags(c *cli.Context, cfg *config.Config) core.Predicate {
	p := core.Predicate{
		Category:      c.String("category"),
		WeightClass:   c.String("weight"),
		MaterialsAny:  c.StringSlice("material"),
		TechniquesAny: c.StringSlice("technique"),
		StitchesAny:   c.StringSlice("stitch"),
		ToleranceMM:   cfg.Search.ToleranceMM,
	}
	if c.IsSet("hook") {
		hook := c.Float64("hook")
		p.HookMM = &hook
	}
	if c.IsSet("needle") {
		needle := c.Float64("needle")
		p.NeedleMM = &needle
	}
	if c.IsSet("tolerance") {
		p.ToleranceMM = c.Float64("tolerance")
	}
	if c.IsSet("has-pdf") {
		hasPDF := c.Bool("has-pdf")
		p.HasPDF = &hasPDF
	}
	if from := c.Timestamp("published-from"); from != nil {
		p.PublishedFrom = *from
	}
	return p
}

func searchCommand(c *cli.Context) error {
	cfg := configFrom(c)
	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if queryText == "" {
		return fmt.Errorf("a query is required")
	}

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}
	idx, err := openIndex(c, cfg, table)
	if err != nil {
		return err
	}
	defer idx.Close()

	resp, err := idx.Search(c.Context, search.Request{
		Query:       queryText,
		Filter:      predicateFromFlags(c, cfg),
		Unfiltered:  c.Bool("unfiltered"),
		ResultLimit: c.Int("limit"),
	})
	if err != nil {
		return err
	}

	var catalog map[core.PatternID]source.Entry
	if !c.Bool("no-details") {
		catalog = loadCatalog(c, cfg, table)
	}
	printResults(c.App.Writer, resp, catalog)
	return nil
}

// loadCatalog returns pattern names and links, or nil if the catalogue
// cannot be read.
func loadCatalog(c *cli.Context, cfg *config.Config, table *normalize.Table) map[core.PatternID]source.Entry {
	reader, err := source.NewReader(cfg.DataDir, source.WithTable(table))
	if err != nil {
		slog.Debug("catalogue unavailable, printing ids only", "data", cfg.DataDir, "err", err)
		return nil
	}
	catalog, err := reader.Catalog(c.Context)
	if err != nil {
		slog.Warn("failed to read catalogue", "err", err)
		return nil
	}
	return catalog
}

func printResults(w io.Writer, resp *search.Response, catalog map[core.PatternID]source.Entry) {
	if resp.Degraded {
		fmt.Fprintf(w, "warning: structured filter unavailable (%s); no results returned\n", resp.Reason)
	}
	if resp.NormalizedQuery != "" {
		fmt.Fprintf(w, "query: %s\n", resp.NormalizedQuery)
	}
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No matching patterns.")
		return
	}
	for i, r := range resp.Results {
		entry, ok := catalog[r.PatternID]
		name := entry.Name
		if !ok || name == "" {
			name = fmt.Sprintf("pattern %d", r.PatternID)
		}
		fmt.Fprintf(w, "%2d. %s [%d] score=%.4f (%s chunk %d)\n", i+1, name, r.PatternID, r.Score, r.Source, r.Order)
		if entry.Link != "" {
			fmt.Fprintf(w, "    %s\n", entry.Link)
		}
	}
	fmt.Fprintf(w, "(%d results in %s)\n", len(resp.Results), resp.Timing.Total.Round(time.Microsecond))
}

func describeRowCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one row id is required")
	}
	row, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || row < 0 {
		return fmt.Errorf("invalid row id %q", c.Args().First())
	}

	cfg := configFrom(c)
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}
	idx, err := openIndex(c, cfg, table)
	if err != nil {
		return err
	}
	defer idx.Close()

	key, ok := idx.DescribeRow(c.Context, core.RowID(row))
	if !ok {
		return fmt.Errorf("row %d not found", row)
	}
	fmt.Fprintf(c.App.Writer, "row %d: pattern %d, %s chunk %d\n", row, key.PatternID, key.Source, key.Order)
	return nil
}

func evalCommand(c *cli.Context) error {
	cfg := configFrom(c)
	sets, err := eval.LoadQuerySetsFile(c.String("queries"))
	if err != nil {
		return err
	}

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}
	idx, err := openIndex(c, cfg, table)
	if err != nil {
		return err
	}
	defer idx.Close()

	runner, err := eval.NewRunner(idx, eval.WithCutoffs(c.IntSlice("k")...))
	if err != nil {
		return err
	}
	results, summaries, err := runner.Run(c.Context, sets)
	if err != nil {
		return err
	}

	if path := c.String("out"); path != "" {
		if err := writeCSVFile(path, func(w io.Writer) error { return eval.WriteResultsCSV(w, results) }); err != nil {
			return err
		}
	}
	if path := c.String("summary"); path != "" {
		if err := writeCSVFile(path, func(w io.Writer) error { return eval.WriteSummaryCSV(w, summaries) }); err != nil {
			return err
		}
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%-20s %4s %8s %10s %8s\n", "set", "k", "queries", "precision", "mrr")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-20s %4d %8d %10.4f %8.4f\n", s.Set, s.K, s.Queries, s.Precision, s.MRR)
	}
	return nil
}

func writeCSVFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return write(f)
}

func snapshotsCommand(c *cli.Context) error {
	layout := snapshot.Layout{Root: configFrom(c).Root}
	versions, err := layout.List()
	if err != nil {
		return err
	}
	current, err := layout.Current()
	if err != nil && !errors.Is(err, snapshot.ErrNoSnapshot) {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(c.App.Writer, "No snapshots.")
		return nil
	}
	for _, v := range versions {
		marker := " "
		if v == current {
			marker = "*"
		}
		m, err := snapshot.ReadManifest(layout.ManifestPath(v))
		if err != nil {
			fmt.Fprintf(c.App.Writer, "%s %s (unreadable manifest: %v)\n", marker, v, err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s %s  rows=%d patterns=%d model=%s backend=%s\n",
			marker, v, m.Rows, m.Patterns, m.EmbeddingModel, m.FilterBackend)
	}
	return nil
}

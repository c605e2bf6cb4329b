// Command chemdict builds or reloads a chemical component definition cache
// and reports its health.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/rcsb/chemdict"
)

type config struct {
	primary       string
	supplementary string
	cacheDir      string
	prefix        string
	format        string
	limit         int
	filter        string
	noCache       bool
	strict        bool
	minCount      int
	verbose       bool
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.primary, "primary", chemdict.DefaultPrimaryLocator, "primary (CCD) archive URL or path")
	flag.StringVar(&cfg.supplementary, "supplementary", chemdict.DefaultSupplementaryLocator, "supplementary (BIRD) archive URL or path; empty to disable")
	flag.StringVar(&cfg.cacheDir, "cache-dir", chemdict.DefaultCacheDir, "directory for fetched archives and the cache artifact")
	flag.StringVar(&cfg.prefix, "prefix", chemdict.DefaultCachePrefix, "cache artifact file prefix")
	flag.StringVar(&cfg.format, "format", "cbor", "cache artifact extension (json for structured text)")
	flag.IntVar(&cfg.limit, "limit", 0, "maximum number of definitions (0 = unlimited)")
	flag.StringVar(&cfg.filter, "filter", "", "comma-separated identifier allow-list for fresh builds")
	flag.BoolVar(&cfg.noCache, "no-cache", false, "ignore existing local files and rebuild")
	flag.BoolVar(&cfg.strict, "strict", false, "fail on partial parses or artifact write failures")
	flag.IntVar(&cfg.minCount, "min-count", 0, "minimum definition count for the validity check")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("build failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	opts := []chemdict.Option{
		chemdict.WithPrimary(cfg.primary),
		chemdict.WithSupplementary(cfg.supplementary),
		chemdict.WithCacheDir(cfg.cacheDir),
		chemdict.WithCachePrefix(cfg.prefix),
		chemdict.WithArtifactFormat(cfg.format),
		chemdict.WithMoleculeLimit(cfg.limit),
		chemdict.WithUseCache(!cfg.noCache),
		chemdict.WithStrict(cfg.strict),
		chemdict.WithLogger(logger),
	}
	if cfg.filter != "" {
		var ids []string
		for _, id := range strings.Split(cfg.filter, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		opts = append(opts, chemdict.WithFilterIDs(ids...))
	}

	p, err := chemdict.New(ctx, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("definitions: %d\n", p.Len())
	fmt.Printf("artifact:    %s\n", p.ArtifactPath())
	fmt.Printf("size:        %.2f MB\n", float64(p.EstimateSize())/1e6)
	fmt.Printf("valid:       %t\n", p.Valid(cfg.minCount))
	for _, w := range p.Warnings() {
		fmt.Printf("warning:     %s\n", w)
	}
	if !p.Valid(cfg.minCount) {
		return fmt.Errorf("store has %d definitions, need at least %d", p.Len(), cfg.minCount)
	}
	return nil
}

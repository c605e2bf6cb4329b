package chemdict

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rcsb/chemdict/fetch"
	"github.com/rcsb/chemdict/internal/artifact"
)

// Provider loads and holds one immutable dictionary of chemical component
// definitions.
//
// Construction runs exactly one of two paths. When caching is enabled and a
// cache artifact exists it is deserialized directly, with no fetch, parse or
// re-write. Otherwise both source archives are fetched and parsed, the
// optional filter is applied, and the resulting store is serialized to the
// artifact path for the next construction.
//
// Construction is blocking and may take minutes on a cold cache; providers
// are meant to be built once per configuration and shared (see [Registry]).
// The held store never changes afterward.
type Provider struct {
	cfg          config
	artifactPath string
	store        Store
	warnings     []string
}

// New constructs a Provider, reloading or building its definition store.
//
// I/O failures are contained: a failed fetch or parse degrades to a partial
// store and a failed artifact write leaves the in-memory store usable, each
// with a logged diagnostic. Only configuration errors, context cancellation,
// and strict-mode violations fail construction. Check [Provider.Valid]
// before trusting the store.
func New(ctx context.Context, opts ...Option) (*Provider, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:          cfg,
		artifactPath: artifact.Path(cfg.cacheDir, cfg.cachePrefix, cfg.artifactExt),
	}
	if err := p.reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) reload(ctx context.Context) error {
	start := time.Now()

	if p.cfg.useCache && artifact.Exists(p.artifactPath) {
		store, err := artifact.Decode(p.artifactPath)
		if err == nil {
			if p.cfg.moleculeLimit > 0 {
				store = truncateSorted(store, p.cfg.moleculeLimit)
			}
			p.store = store
			p.log().Info("reloaded definitions from cache artifact",
				"path", p.artifactPath,
				"count", len(store),
				"elapsed", time.Since(start))
			return nil
		}
		p.log().Warn("cache artifact unreadable, rebuilding", "path", p.artifactPath, "err", err)
	}

	if err := p.build(ctx); err != nil {
		return err
	}
	p.log().Info("loaded definitions",
		"count", len(p.store),
		"elapsed", time.Since(start))
	return nil
}

// build is the cache-miss path: fetch, parse, filter, serialize.
func (p *Provider) build(ctx context.Context) error {
	f := fetch.New(
		fetch.WithHTTPClient(p.cfg.httpClient),
		fetch.WithLogger(p.cfg.logger),
	)

	// The archives are fetched independently; one failing does not prevent
	// attempting the other. A failed fetch surfaces at parse time.
	primaryPath, err := f.Ensure(ctx, p.cfg.primary, p.cfg.cacheDir, p.cfg.useCache)
	if err != nil {
		p.log().Warn("primary archive unavailable", "locator", p.cfg.primary, "err", err)
	}
	var supplementaryPath string
	if p.cfg.supplementary != "" {
		supplementaryPath, err = f.Ensure(ctx, p.cfg.supplementary, p.cfg.cacheDir, p.cfg.useCache)
		if err != nil {
			p.log().Warn("supplementary archive unavailable", "locator", p.cfg.supplementary, "err", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	res := readDefinitions(p.log(), primaryPath, supplementaryPath, p.cfg.moleculeLimit)
	p.warnings = res.Warnings
	if p.cfg.strict && res.Partial() {
		return fmt.Errorf("%w: %v", ErrPartialParse, res.Warnings)
	}

	store := res.Store
	if len(p.cfg.filterIDs) > 0 {
		store = filterStore(store, p.cfg.filterIDs)
	}

	err = artifact.Encode(p.artifactPath, store)
	if err != nil {
		werr := fmt.Errorf("%w: %v", ErrSerializeFailed, err)
		if p.cfg.strict {
			return werr
		}
		p.log().Error("storing cache artifact failed", "path", p.artifactPath, "err", werr)
	}
	p.log().Info("stored cache artifact",
		"path", p.artifactPath,
		"count", len(store),
		"ok", err == nil)

	p.store = store
	return nil
}

// Valid is the health check consumers run before trusting the store: the
// store must be present and, when minCount > 0, hold at least minCount
// records. It never re-fetches.
func (p *Provider) Valid(minCount int) bool {
	if p.store == nil {
		return false
	}
	if minCount > 0 {
		return len(p.store) >= minCount
	}
	return true
}

// Get returns the definition record for id. Misses are expected and report
// ok=false rather than an error.
func (p *Provider) Get(id string) (b *Block, ok bool) {
	b, ok = p.store.Get(id)
	return b, ok
}

// Store returns the full definition store. Read-only.
func (p *Provider) Store() Store {
	return p.store
}

// Len returns the number of definitions held.
func (p *Provider) Len() int {
	return len(p.store)
}

// EstimateSize approximates the store's in-memory footprint in bytes, for
// operational logging only.
func (p *Provider) EstimateSize() int64 {
	return p.store.EstimateSize()
}

// Warnings returns the parse warnings recorded during a fresh build. Empty
// after a cache reload or a clean build.
func (p *Provider) Warnings() []string {
	return p.warnings
}

// ArtifactPath returns the location of the serialized cache artifact.
func (p *Provider) ArtifactPath() string {
	return p.artifactPath
}

func (p *Provider) log() *slog.Logger {
	if p.cfg.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.cfg.logger
}

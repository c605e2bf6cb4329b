package chemdict

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"sort"
	"strings"
)

// Default source locators and cache layout, matching the wwPDB distribution.
const (
	DefaultPrimaryLocator       = "http://ftp.wwpdb.org/pub/pdb/data/monomers/components.cif.gz"
	DefaultSupplementaryLocator = "http://ftp.wwpdb.org/pub/pdb/data/bird/prd/prdcc-all.cif.gz"
	DefaultCachePrefix          = "cc"
	DefaultCacheDir             = "chem_comp"

	defaultArtifactExt = "cbor"
)

type config struct {
	primary       string
	supplementary string
	cachePrefix   string
	cacheDir      string
	useCache      bool
	moleculeLimit int
	filterIDs     map[string]struct{}
	artifactExt   string
	strict        bool

	logger     *slog.Logger
	httpClient *nethttp.Client
}

func defaultConfig() config {
	return config{
		primary:       DefaultPrimaryLocator,
		supplementary: DefaultSupplementaryLocator,
		cachePrefix:   DefaultCachePrefix,
		cacheDir:      DefaultCacheDir,
		useCache:      true,
		artifactExt:   defaultArtifactExt,
	}
}

func (c *config) validate() error {
	if c.primary == "" {
		return errors.New("chemdict: primary locator is empty")
	}
	if c.cachePrefix == "" {
		return errors.New("chemdict: cache prefix is empty")
	}
	if c.cacheDir == "" {
		return errors.New("chemdict: cache dir is empty")
	}
	if c.moleculeLimit < 0 {
		return fmt.Errorf("chemdict: molecule limit %d is negative", c.moleculeLimit)
	}
	return nil
}

// fingerprint returns a stable digest of the semantic configuration fields.
// Providers with equal fingerprints build identical stores, so the registry
// uses it as the reuse key. Logger and HTTP client are excluded.
func (c *config) fingerprint() string {
	ids := make([]string, 0, len(c.filterIDs))
	for id := range c.filterIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%t\x00%t\x00%d\x00%s\x00%s",
		c.primary, c.supplementary, c.cachePrefix, c.cacheDir,
		c.useCache, c.strict, c.moleculeLimit, c.artifactExt,
		strings.Join(ids, "\x01"))
	return hex.EncodeToString(h.Sum(nil))
}

// Option configures a Provider.
type Option func(*config)

// WithPrimary sets the primary (CCD) archive locator: an http(s) URL or a
// local path. Defaults to [DefaultPrimaryLocator].
func WithPrimary(locator string) Option {
	return func(c *config) {
		c.primary = locator
	}
}

// WithSupplementary sets the supplementary (BIRD) archive locator. Its
// records are appended after the primary stream, so a supplementary record
// sharing an identifier with a primary one overrides it. An empty locator
// disables the supplementary archive. Defaults to
// [DefaultSupplementaryLocator].
func WithSupplementary(locator string) Option {
	return func(c *config) {
		c.supplementary = locator
	}
}

// WithCachePrefix sets the cache artifact file prefix. Defaults to "cc".
func WithCachePrefix(prefix string) Option {
	return func(c *config) {
		c.cachePrefix = prefix
	}
}

// WithCacheDir sets the directory holding fetched archives and the cache
// artifact. Defaults to "chem_comp".
func WithCacheDir(dir string) Option {
	return func(c *config) {
		c.cacheDir = dir
	}
}

// WithUseCache controls reuse of existing local files: the cache artifact
// and previously fetched archives. Enabled by default; disable to force a
// full refetch and rebuild.
func WithUseCache(use bool) Option {
	return func(c *config) {
		c.useCache = use
	}
}

// WithMoleculeLimit caps the number of records. Fresh builds keep the first
// n records in combined stream order; cache reloads keep the first n
// identifiers in ascending sorted order. Zero means unlimited.
func WithMoleculeLimit(n int) Option {
	return func(c *config) {
		c.moleculeLimit = n
	}
}

// WithFilterIDs restricts a fresh build to the given identifiers, applied
// before the artifact is serialized. Reloads of an already-filtered artifact
// are unaffected. No filter by default.
func WithFilterIDs(ids ...string) Option {
	return func(c *config) {
		if len(ids) == 0 {
			c.filterIDs = nil
			return
		}
		c.filterIDs = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			c.filterIDs[id] = struct{}{}
		}
	}
}

// WithArtifactFormat sets the cache artifact extension. "json" selects the
// structured-text format; any other extension is binary. Defaults to "cbor".
func WithArtifactFormat(ext string) Option {
	return func(c *config) {
		c.artifactExt = strings.TrimPrefix(ext, ".")
	}
}

// WithStrict makes construction fail on partial parses or artifact write
// failures instead of degrading to a logged diagnostic.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// WithLogger sets the logger for build diagnostics. Nil discards all logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used to fetch remote archives.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

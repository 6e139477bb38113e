package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/permitscope/permitscope/pkg/cache"
	"github.com/permitscope/permitscope/pkg/directory"
	"github.com/permitscope/permitscope/pkg/errors"
	"github.com/permitscope/permitscope/pkg/hierarchy"
	"github.com/permitscope/permitscope/pkg/layout"
	"github.com/permitscope/permitscope/pkg/model"
	"github.com/permitscope/permitscope/pkg/normalize"
	"github.com/permitscope/permitscope/pkg/observability"
	"github.com/permitscope/permitscope/pkg/render"
	"github.com/permitscope/permitscope/pkg/vizgraph"
)

// Directory is the read surface of the directory client consumed by the
// runner. *directory.Client satisfies it.
type Directory interface {
	Users(ctx context.Context) ([]directory.RawUser, error)
	PageMatrix(ctx context.Context) (directory.RawPageMatrix, error)
	UserMatrix(ctx context.Context, userID string) (directory.RawUserMatrix, error)
}

// Runner executes the pipeline with caching for the expensive stages.
// Normalized directory snapshots are cached under a short TTL; layouts are
// cached by graph content hash. The build stage is pure and cheap, so it
// always runs fresh.
type Runner struct {
	client Directory
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewRunner creates a pipeline runner. keyer may be nil for the default
// keyer; logger may be nil.
func NewRunner(client Directory, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{client: client, cache: c, keyer: keyer, logger: logger}
}

// snapshot is the cached form of a normalized directory response.
type snapshot struct {
	Pages []*model.PageNode       `json:"pages,omitempty"`
	User  *model.UserAccessRecord `json:"user,omitempty"`
	Users []model.User            `json:"users,omitempty"`
}

// Execute runs fetch → build → layout → render for the given options and
// returns the laid-out graph plus the requested artifacts.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid pipeline options")
	}
	logger := r.logger
	if opts.Logger != nil {
		logger = opts.Logger
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	// Fetch
	start := time.Now()
	observability.Pipeline().OnFetchStart(ctx, opts.Selection, opts.UserID)
	snap, hit, err := r.fetchSnapshot(ctx, opts, logger)
	observability.Pipeline().OnFetchComplete(ctx, opts.Selection, opts.UserID, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	result.Stats.FetchTime = time.Since(start)
	result.CacheInfo.SnapshotHit = hit

	if opts.Selection == SelectionPages && opts.PageID != "" && findPage(snap.Pages, opts.PageID) == nil {
		return nil, errors.New(errors.ErrCodePageNotFound,
			"page %s not in the current snapshot", opts.PageID)
	}

	// Build + layout
	start = time.Now()
	var g vizgraph.Graph
	if opts.Selection == SelectionUser {
		g = vizgraph.BuildUser(snap.User, opts.BuildOptions())
	} else {
		g = vizgraph.BuildPages(snap.Pages, opts.BuildOptions())
	}
	result.GraphHash = graphHash(g)

	g, hit = r.assignLayout(ctx, g, result.GraphHash, opts, logger)
	result.Graph = g
	result.Stats.BuildTime = time.Since(start)
	result.CacheInfo.LayoutHit = hit
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	observability.Pipeline().OnBuildComplete(ctx, opts.Selection, len(g.Nodes), len(g.Edges), result.Stats.BuildTime)

	// Render
	start = time.Now()
	err = r.renderFormats(g, opts, result)
	result.Stats.RenderTime = time.Since(start)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}

	logger.Debug("pipeline complete",
		"selection", opts.Selection,
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"snapshot_hit", result.CacheInfo.SnapshotHit,
		"layout_hit", result.CacheInfo.LayoutHit)
	return result, nil
}

// ListUsers fetches the directory user list, cached under the snapshot TTL.
func (r *Runner) ListUsers(ctx context.Context, refresh bool) ([]model.User, error) {
	key := r.keyer.SnapshotKey(cache.SnapshotKeyOpts{Kind: "users"})
	if !refresh {
		if snap, ok := r.getCached(ctx, key); ok {
			return snap.Users, nil
		}
	}
	raw, err := r.client.Users(ctx)
	if err != nil {
		return nil, err
	}
	users := normalize.Users(raw)
	r.setCached(ctx, key, snapshot{Users: users}, cache.TTLSnapshot)
	return users, nil
}

// fetchSnapshot returns the normalized snapshot for the selection, from
// cache when possible. The bool reports a cache hit.
func (r *Runner) fetchSnapshot(ctx context.Context, opts Options, logger *log.Logger) (snapshot, bool, error) {
	key := r.keyer.SnapshotKey(cache.SnapshotKeyOpts{Kind: opts.Selection, ID: opts.UserID})
	if !opts.Refresh {
		if snap, ok := r.getCached(ctx, key); ok {
			logger.Debug("snapshot cache hit", "kind", opts.Selection)
			observability.Cache().OnCacheHit(ctx, "snapshot")
			return snap, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "snapshot")
	}

	var snap snapshot
	switch opts.Selection {
	case SelectionUser:
		raw, err := r.client.UserMatrix(ctx, opts.UserID)
		if err != nil {
			return snapshot{}, false, err
		}
		snap.User = normalize.User(raw)
	default:
		raw, err := r.client.PageMatrix(ctx)
		if err != nil {
			return snapshot{}, false, err
		}
		snap.Pages = hierarchy.Build(normalize.Pages(raw.Pages))
	}

	r.setCached(ctx, key, snap, cache.TTLSnapshot)
	return snap, false, nil
}

// assignLayout lays out the graph, reusing a cached layout for the same
// graph content and direction when available. Cache failures degrade to a
// fresh layout. The bool reports a cache hit.
func (r *Runner) assignLayout(ctx context.Context, g vizgraph.Graph, hash string, opts Options, logger *log.Logger) (vizgraph.Graph, bool) {
	key := r.keyer.LayoutKey(hash, cache.LayoutKeyOpts{Direction: opts.Direction})
	if !opts.Refresh {
		if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			var cached vizgraph.Graph
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true
			}
			logger.Warn("discarding corrupt cached layout", "key", key)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	g = layout.Assign(g, opts.LayoutDirection())
	if data, err := json.Marshal(g); err == nil {
		if err := r.cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			logger.Warn("layout cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return g, false
}

func (r *Runner) renderFormats(g vizgraph.Graph, opts Options, result *Result) error {
	dot := ""
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := render.MarshalDocument(render.NewDocument(g, opts.Direction, opts.Query))
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "marshal graph document")
			}
			result.Artifacts[FormatJSON] = data
		case FormatDOT, FormatSVG, FormatPNG:
			if dot == "" {
				dot = render.ToDOT(g)
			}
			switch format {
			case FormatDOT:
				result.Artifacts[FormatDOT] = []byte(dot)
			case FormatSVG:
				data, err := render.SVG(dot)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "render SVG")
				}
				result.Artifacts[FormatSVG] = data
			case FormatPNG:
				data, err := render.PNG(dot)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "render PNG")
				}
				result.Artifacts[FormatPNG] = data
			}
		}
	}
	return nil
}

func (r *Runner) getCached(ctx context.Context, key string) (snapshot, bool) {
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil || !ok {
		if err != nil {
			r.logger.Warn("cache read failed", "error", err)
		}
		return snapshot{}, false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.logger.Warn("discarding corrupt cached snapshot", "key", key)
		return snapshot{}, false
	}
	return snap, true
}

func (r *Runner) setCached(ctx context.Context, key string, snap snapshot, ttl time.Duration) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, ttl); err != nil {
		r.logger.Warn("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
}

// graphHash fingerprints a built graph's content for layout caching and
// HTTP ETags.
func graphHash(g vizgraph.Graph) string {
	data, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func findPage(pages []*model.PageNode, id string) *model.PageNode {
	for _, p := range pages {
		if p == nil {
			continue
		}
		if p.ID == id {
			return p
		}
		if found := findPage(p.Children, id); found != nil {
			return found
		}
	}
	return nil
}

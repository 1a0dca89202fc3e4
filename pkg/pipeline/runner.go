package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitdraw/pkg/cache"
	"github.com/matzehuels/gitdraw/pkg/command"
	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/history"
	"github.com/matzehuels/gitdraw/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute builds the view f describes and renders it.
func (r *Runner) Execute(ctx context.Context, f *config.File, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Build
	buildStart := time.Now()
	repo, lines, err := r.Build(ctx, f)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	result.Scene = repo.Scene()
	result.Log = lines
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.CommitCount = len(result.Scene.Commits)
	result.Stats.TagCount = len(result.Scene.Tags)

	r.Logger.Info("built history view",
		"name", result.Scene.Name,
		"commits", result.Stats.CommitCount,
		"branch", graph.BranchDisplay(result.Scene.CurrentBranch),
		"duration", result.Stats.BuildTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, hash, hit, err := r.render(ctx, result.Scene, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.SceneHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Build creates the repository f describes and runs its script. It returns
// the output of each script command. Extra options are applied after the
// runner's logger.
func (r *Runner) Build(ctx context.Context, f *config.File, opts ...history.Option) (*history.Repository, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	script := f.Script
	base := *f
	base.Script = nil

	hopts := append([]history.Option{history.WithLogger(r.Logger)}, opts...)
	repo, err := base.Open(hopts...)
	if err != nil {
		return nil, nil, err
	}

	lines, err := command.RunScript(repo, script)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	if len(lines) > 0 {
		r.Logger.Debug("replayed script", "commands", len(lines))
	}
	return repo, lines, nil
}

// RenderWithCacheInfo renders a scene with caching and reports whether every
// artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s graph.Scene, opts Options) (map[string][]byte, bool, error) {
	artifacts, _, hit, err := r.render(ctx, s, opts)
	return artifacts, hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, s graph.Scene, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, opts)
	return artifacts, err
}

func (r *Runner) render(ctx context.Context, s graph.Scene, opts Options) (map[string][]byte, string, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, err
	}

	sceneData, err := graph.MarshalScene(s)
	if err != nil {
		return nil, "", false, errors.Wrap(errors.ErrCodeInternal, err, "serialize scene for cache key")
	}
	sceneHash := cache.Hash(sceneData)

	// Try to get all formats from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, sceneHash, true, nil
		}
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, s, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "error", err)
		}
	}
	return rendered, sceneHash, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitdraw/internal/server"
	"github.com/matzehuels/gitdraw/pkg/cache"
	"github.com/matzehuels/gitdraw/pkg/pipeline"
	"github.com/matzehuels/gitdraw/pkg/session"
)

const (
	defaultAddr     = "localhost:8080"
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 5 * time.Minute
)

type serveOpts struct {
	addr     string
	redisURL string
	ttl      time.Duration
	noCache  bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve history views over HTTP",
		Long: `Serve exposes sessions over a JSON API. Each session holds one view that
clients mutate with commit, branch, checkout, reset and exec requests and
render in any supported format.

With --redis, sessions and rendered artifacts live in Redis so several
instances can serve the same sessions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), newUI(cmd.OutOrStdout()), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for sessions and cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", session.DefaultTTL, "idle session lifetime")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// backends picks the session store and artifact cache for the server.
func (c *CLI) backends(ctx context.Context, o serveOpts) (session.Store, *pipeline.Runner, string, error) {
	if o.redisURL == "" {
		artifacts, err := newCache(o.noCache)
		if err != nil {
			return nil, nil, "", err
		}
		runner := pipeline.NewRunner(cache.Instrument(artifacts, "artifact"), nil, c.Logger)
		return session.NewMemoryStore(), runner, "memory", nil
	}

	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: o.redisURL})
	if err != nil {
		return nil, nil, "", err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":")
	runner := pipeline.NewRunner(cache.Instrument(rc, "artifact"), keyer, c.Logger)
	return session.NewRedisStore(rc.Client()), runner, "redis", nil
}

func (c *CLI) runServe(ctx context.Context, out ui, o serveOpts) error {
	store, runner, kind, err := c.backends(ctx, o)
	if err != nil {
		return err
	}
	defer runner.Close()
	defer store.Close()

	srv := &http.Server{
		Addr:              o.addr,
		Handler:           server.New(store, runner, server.WithLogger(c.Logger), server.WithTTL(o.ttl)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	out.field("Listening", StyleLink.Render("http://"+o.addr))
	out.field("Sessions", kind)
	out.field("TTL", o.ttl.String())

	go c.cleanupSessions(ctx, store)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cleanupSessions drops expired sessions until ctx ends.
func (c *CLI) cleanupSessions(ctx context.Context, store session.Store) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx); err != nil {
				c.Logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

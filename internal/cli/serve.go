package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/cache"
	"github.com/matzehuels/wafermask/pkg/pipeline"
	"github.com/matzehuels/wafermask/pkg/server"
)

// apiKeyPrefix keeps server cache entries apart from CLI entries.
const apiKeyPrefix = "api:"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	cfg      server.Config
	redisURL string
	mongoURI string
	noCache  bool
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{cfg: server.Config{Addr: server.DefaultAddr, Timeout: server.DefaultTimeout}}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mask generator over HTTP",
		Long: `Serve the mask generator over HTTP.

Endpoints:
  GET  /healthz          liveness and build info
  GET  /v1/sizes         wafer sizes and flats
  GET  /v1/structures    structure kinds
  POST /v1/sections      section table of a TOML or JSON job
  POST /v1/masks         generate a job (?format=gds|svg|png|pdf|json)
  GET  /v1/runs          recent runs
  GET  /v1/runs/{id}     one run

Artifacts are cached in Redis when --redis (or ` + envRedisURL + `) is set and
in the local cache directory otherwise. Runs are recorded in MongoDB when
--mongo (or ` + envMongoURI + `) is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.cfg.Addr, "addr", opts.cfg.Addr, "listen address")
	cmd.Flags().DurationVar(&opts.cfg.Timeout, "timeout", opts.cfg.Timeout, "per-request timeout")
	cmd.Flags().Int64Var(&opts.cfg.MaxBodyBytes, "max-body", server.DefaultMaxBodyBytes, "largest accepted job in bytes")
	cmd.Flags().IntVar(&opts.cfg.Workers, "workers", 0, "sections generated in parallel per request")
	cmd.Flags().StringVar(&opts.redisURL, "redis", os.Getenv(envRedisURL), "Redis URL for the artifact cache")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", os.Getenv(envMongoURI), "MongoDB URI for the run history")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	ch, err := newServerCache(ctx, opts)
	if err != nil {
		return err
	}
	st, err := openHistory(ctx, opts.mongoURI)
	if err != nil {
		ch.Close()
		return err
	}

	runner := pipeline.NewRunner(ch, cache.NewScopedKeyer(nil, apiKeyPrefix), st, c.Logger)
	defer runner.Close(context.Background())

	c.Logger.Info("starting server",
		"addr", opts.cfg.Addr,
		"redis", opts.redisURL != "",
		"mongo", opts.mongoURI != "")
	printInfo("Serving on %s", StyleLink.Render(serverURL(opts.cfg.Addr)))
	return server.New(runner, opts.cfg, c.Logger).ListenAndServe(ctx)
}

// newServerCache connects to Redis when configured and falls back to the
// local file cache.
func newServerCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisURL != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{URL: opts.redisURL, Prefix: appName + ":"})
	}
	return newCache(false)
}

// serverURL returns a browsable URL for a listen address.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

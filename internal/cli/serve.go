package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/etulastrada/ideconfy/pkg/config"
	"github.com/etulastrada/ideconfy/pkg/observability"
	"github.com/etulastrada/ideconfy/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr  string
	redis string
	trace bool
}

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve identicons and canvases over HTTP",
		Long: `Serve the HTTP API:

  GET    /identicons/{content}              identicon as JSON
  GET    /identicons/{content}/{format}     svg, png, jpeg or bmp
  POST   /canvases                          new canvas
  POST   /canvases/{id}/items               craft an item
  POST   /canvases/{id}/items/{item}/commit drag an item onto the canvas

Ctrl-C shuts the server down gracefully.`,
		Example: `  ideconfy serve --addr :9000
  ideconfy serve --redis redis://localhost:6379/0 --trace -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "cache artifacts in Redis at this URL")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "log OpenTelemetry spans at debug level")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.redis != "" && !c.noCache {
		cfg.Cache.Backend = config.BackendRedis
		cfg.Cache.RedisURL = opts.redis
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.trace {
		tp := observability.NewLogTracerProvider(c.Logger, appName)
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				c.Logger.Warn("trace shutdown", "err", err)
			}
		}()
		otel, err := observability.NewOTel(nil, tp)
		if err != nil {
			return err
		}
		otel.Register()
		defer observability.Reset()
	}

	runner, err := c.newRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	c.Logger.Info("starting server", "addr", cfg.Server.Addr, "cache", cfg.Cache.Backend)
	return server.New(cfg, runner, c.Logger).ListenAndServe(ctx)
}

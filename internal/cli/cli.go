// Package cli implements the storefront command line tool: catalog
// browsing, cart editing against the configured storage, quotes, database
// seeding and coupon ingestion.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/storefront/internal/app"
	"github.com/xenking/storefront/internal/catalog"
)

type cli struct {
	out        io.Writer
	configFile string
	verbose    bool

	lg  *zap.Logger
	cfg *app.Config
}

// NewRootCommand returns the storefront command tree. Results are written to
// out, logs to stderr.
func NewRootCommand(out io.Writer) *cobra.Command {
	return (&cli{out: out}).root()
}

func (c *cli) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront catalog, cart and coupon tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = c.lg.Sync()
		},
	}
	cmd.SetOut(c.out)
	cmd.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "YAML config file (default config.yaml, /etc/storefront/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log at debug level")

	cmd.AddCommand(
		c.catalogCommand(),
		c.cartCommand(),
		c.quoteCommand(),
		c.seedCommand(),
		c.couponsCommand(),
	)
	return cmd
}

func (c *cli) setup() error {
	if c.lg == nil {
		level := zapcore.WarnLevel
		if c.verbose {
			level = zapcore.DebugLevel
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		lg, err := cfg.Build()
		if err != nil {
			return errors.Wrap(err, "build logger")
		}
		c.lg = lg
	}

	ac := aconfig.Config{SkipFlags: true}
	if c.configFile != "" {
		ac.Files = []string{c.configFile}
		ac.FailOnFileNotFound = true
	}
	cfg, err := app.Load(ac)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// backends opens the configured storage. The returned func releases it.
func (c *cli) backends(ctx context.Context) (*app.Backends, func(), error) {
	b, err := app.OpenBackends(ctx, c.lg, c.cfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open backends")
	}
	return b, func() {
		if err := b.Close(); err != nil {
			c.lg.Warn("Close backends", zap.Error(err))
		}
	}, nil
}

func (c *cli) catalog(ctx context.Context) (*catalog.Catalog, func(), error) {
	b, done, err := c.backends(ctx)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load(ctx, b.Catalog)
	if err != nil {
		done()
		return nil, nil, errors.Wrap(err, "load catalog")
	}
	return cat, done, nil
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

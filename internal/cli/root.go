// Package cli provides the command-line interface for wubba.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/wubba/internal/config"
	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/client"
	"github.com/Sternrassler/wubba/pkg/dispatch"
	"github.com/Sternrassler/wubba/pkg/logging"
	"github.com/Sternrassler/wubba/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time.
var Version = "0.1.0"

const redisPingTimeout = 2 * time.Second

// options holds the global flags.
type options struct {
	table       bool
	output      string
	logLevel    string
	metricsFile string
}

// app carries the state shared by all commands of one invocation.
type app struct {
	opts       options
	cfg        config.Config
	client     *client.Client
	redis      *redis.Client
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger
}

// Execute builds the command tree and runs it until completion or SIGINT.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd returns the wubba command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "wubba",
		Short: "Query the Rick and Morty API",
		Long: `wubba lists, fetches, filters and ranks the characters, locations and
episodes of the Rick and Morty API.

Filters the API cannot evaluate (air date ranges, seasons, episode numbers,
character origin and location) are applied locally after every page has been
fetched.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.opts.table, "table", "t", false, "print results as a table")
	flags.StringVarP(&a.opts.output, "output", "o", formatJSON, "output format: json, yaml or table")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "log level: debug, info, warn or error (default from WUBBA_LOG_LEVEL)")
	flags.StringVar(&a.opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(a.newListCmd())
	rootCmd.AddCommand(a.newGetCmd())
	rootCmd.AddCommand(a.newFilterCmd())
	rootCmd.AddCommand(a.newMatrixCmd())

	return rootCmd
}

// setup loads configuration, configures logging and connects the client.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	if _, err := parseFormat(a.opts.output); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.opts.logLevel != "" {
		cfg.LogLevel = logging.LogLevel(a.opts.logLevel)
	}
	if _, err := logging.ParseLevel(string(cfg.LogLevel)); err != nil {
		return err
	}
	a.cfg = cfg

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty || isTerminal(cmd.ErrOrStderr()),
		Output: cmd.ErrOrStderr(),
	})
	a.logger = logging.NewLogger("cli")

	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return err
	}
	if clientCfg.Redis != nil {
		pingCtx, cancel := context.WithTimeout(cmd.Context(), redisPingTimeout)
		err := clientCfg.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.logger.Warn().Err(err).Str("redis_url", cfg.RedisURL).Msg("Redis unreachable, caching disabled")
			clientCfg.Redis.Close()
			clientCfg.Redis = nil
		}
	}
	a.redis = clientCfg.Redis

	a.client, err = client.New(clientCfg)
	if err != nil {
		if a.redis != nil {
			a.redis.Close()
		}
		return fmt.Errorf("create client: %w", err)
	}
	a.dispatcher = dispatch.New(a.client)
	return nil
}

// runE wraps a RunE so the client is released and metrics are written
// however the command ends.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.finish()
		return fn(cmd, args)
	}
}

// run dispatches a command and prints its rows. afterRender, when set, runs
// on the printed rows.
func (a *app) run(cmd *cobra.Command, command dispatch.Command, format string, afterRender func([]catalog.Row)) error {
	rows, err := a.dispatcher.Run(cmd.Context(), command)
	if err != nil {
		return err
	}

	if err := render(cmd.OutOrStdout(), rows, format); err != nil {
		return err
	}

	if afterRender != nil {
		afterRender(rows)
	}
	return nil
}

// format resolves the output format from -o and -t.
func (a *app) format() string {
	if a.opts.table {
		return formatTable
	}
	f, _ := parseFormat(a.opts.output)
	return f
}

func (a *app) finish() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close client")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close redis")
		}
	}
	if a.opts.metricsFile != "" {
		if err := metrics.WriteTextfile(a.opts.metricsFile); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to write metrics")
		}
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// warn prints a non-fatal problem to stderr.
func warn(w io.Writer, err error) {
	fmt.Fprintf(w, "Warning: %v\n", err)
}

// collectionArg parses a positional collection argument.
func collectionArg(args []string) (catalog.Collection, error) {
	if len(args) == 0 {
		return "", errors.New("a collection is required: character, location or episode")
	}
	return catalog.ParseCollection(args[0])
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/dupes/internal/dupes"
	"github.com/idelchi/dupes/internal/integration"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// allowedOutputs are the accepted output formats.
//
//nolint:gochecknoglobals // Config constant
var allowedOutputs = []string{"json", "table"}

// config holds the raw flag values before they are turned into dupes.Options.
type config struct {
	options     dupes.Options
	path        string
	strategy    string
	algorithm   string
	minSize     string
	output      string
	debug       bool
	integration bool
}

func registerFlags(flags *pflag.FlagSet, cfg *config) {
	flags.StringVarP(&cfg.path, "path", "p", "", "Directory to scan (alternative to the positional argument)")
	flags.StringVarP(&cfg.strategy, "strategy", "s", string(dupes.StrategyDigest),
		"Content check: digest or compare (byte by byte)")
	flags.StringVar(&cfg.algorithm, "hash", string(dupes.SHA256), "Digest algorithm: sha256, md5 or highway")
	flags.BoolVar(&cfg.options.Verify, "verify", false, "Re-check digest matches byte by byte")
	flags.IntVarP(&cfg.options.Workers, "workers", "j", runtime.NumCPU(), "Number of size buckets checked concurrently")
	flags.StringVar(&cfg.minSize, "min-size", "0B", "Minimum file size (e.g., 1KB)")
	flags.StringSliceVarP(
		&cfg.options.Filter.Extensions,
		"ext",
		"x",
		[]string{},
		"File suffixes to include (e.g., .jpg,.png). Use '!' prefix to exclude (e.g., !.log)",
	)
	flags.StringSliceVarP(&cfg.options.Filter.Excludes, "exclude", "e", []string{}, "Regex patterns to exclude")
	flags.IntVarP(&cfg.options.Filter.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	flags.StringVarP(&cfg.output, "output", "o", "json", "Output format: json or table")
	flags.BoolVar(&cfg.debug, "debug", false, "Enable debug output")
	flags.BoolVarP(&cfg.integration, "init", "i", false, "Output init script for shell usage")

	flags.SortFlags = false
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var cfg config

	cmd := &cobra.Command{
		Use:   "dupes [flags] [path]",
		Short: "Find files with identical content",
		Long: heredoc.Doc(`
			dupes finds groups of files with identical content under a directory.

			Files are first grouped by size; only files sharing a size are read.
			Content is then compared by digest (default) or byte by byte.
			Empty files and symlinks are ignored. Nothing is ever modified.

			The default output is a JSON array of groups, each an array of absolute paths.
			Use '-o table' for a human-readable listing.

			The '-i' flag prints a zsh snippet defining 'dupes-fzf', which browses
			the duplicates with 'fzf'.
		`),
		Example: heredoc.Doc(`
			dupes ~/Pictures
			dupes -p ~/Pictures -o table --min-size 1MB
			dupes --strategy compare -x .jpg,.png ~/Pictures
		`),
		Version:       c.version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.integration {
				rendered, err := integration.Render()
				if err != nil {
					return fmt.Errorf("rendering integration script: %w", err)
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)

				return err
			}

			if err := cfg.finalize(args); err != nil {
				return err
			}

			return logic(cmd, cfg)
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	registerFlags(cmd.Flags(), &cfg)

	return cmd
}

// finalize validates the flag values and fills in cfg.options.
func (cfg *config) finalize(args []string) error {
	switch {
	case len(args) == 1 && cfg.path != "":
		return errors.New("path given both as argument and with --path")
	case len(args) == 1:
		cfg.options.Path = args[0]
	case cfg.path != "":
		cfg.options.Path = cfg.path
	default:
		return errors.New("missing path: pass a directory to scan")
	}

	if !slices.Contains(allowedOutputs, cfg.output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", cfg.output, allowedOutputs)
	}

	cfg.options.Strategy = dupes.Strategy(cfg.strategy)
	if !slices.Contains(dupes.Strategies, cfg.options.Strategy) {
		return fmt.Errorf("invalid strategy %q: must be one of %v", cfg.strategy, dupes.Strategies)
	}

	cfg.options.Algorithm = dupes.Algorithm(cfg.algorithm)
	if !slices.Contains(dupes.Algorithms, cfg.options.Algorithm) {
		return fmt.Errorf("invalid hash %q: must be one of %v", cfg.algorithm, dupes.Algorithms)
	}

	if cfg.options.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	if cfg.options.Filter.Depth < 0 {
		return errors.New("depth cannot be negative")
	}

	if cfg.minSize != "" {
		size, err := humanize.ParseBytes(cfg.minSize)
		if err != nil {
			return fmt.Errorf("invalid min-size: %w", err)
		}

		cfg.options.MinSize = int64(size) //nolint:gosec // Size conversion from humanize is safe
	}

	return nil
}

// Execute runs the CLI with the process arguments. An interrupt cancels the scan.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Command().ExecuteContext(ctx)
}

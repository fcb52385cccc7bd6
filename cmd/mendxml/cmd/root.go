package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muzzletov/mendxml"
	"github.com/muzzletov/mendxml/internal/config"
	"github.com/muzzletov/mendxml/internal/logging"
	"github.com/muzzletov/mendxml/internal/source"
)

// app carries what every subcommand needs once the root has set it up.
type app struct {
	cfgFile   string
	verbose   bool
	logFormat string

	cfg    *config.Config
	logger *zap.Logger
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "mendxml",
		Short: "Turn lenient tag markup into well-formed XML",
		Long: `mendxml reads angle-bracket markup that is not guaranteed to be
well-formed (raw &, < and > inside text and attribute values) and writes
normalized, pretty-printed XML that any conformant parser accepts.

Commands:
  clean   - normalize one document
  record  - dump the structural record of one document as JSON or YAML
  batch   - clean a whole directory tree incrementally
  check   - verify files with a conformant parser`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $MENDXML_CONFIG or ./mendxml.toml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(
		newCleanCmd(a),
		newRecordCmd(a),
		newBatchCmd(a),
		newCheckCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error

	if a.cfgFile != "" {
		a.cfg, err = config.Load(a.cfgFile)
	} else {
		a.cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:  a.cfg.General.LogLevel,
		Format: a.cfg.General.LogFormat,
		Output: cmd.ErrOrStderr(),
	}
	if a.verbose {
		logCfg.Level = "debug"
	}
	if a.logFormat != "" {
		logCfg.Format = a.logFormat
	}

	a.logger, err = logging.New(logCfg)
	return err
}

// parser builds a parser from the config, with command flags taking
// precedence when they were set.
func (a *app) parser(cmd *cobra.Command) *mendxml.Parser {
	strict := a.cfg.Parse.StrictClose
	if cmd.Flags().Changed("strict") {
		strict, _ = cmd.Flags().GetBool("strict")
	}

	depth := a.cfg.Parse.MaxDepth
	if cmd.Flags().Changed("max-depth") {
		depth, _ = cmd.Flags().GetInt("max-depth")
	}

	opts := []mendxml.Option{mendxml.WithMaxDepth(depth)}
	if strict {
		opts = append(opts, mendxml.WithStrictClose())
	}

	return mendxml.NewParser(opts...)
}

func (a *app) loader(cmd *cobra.Command) *source.Loader {
	client := mendxml.NewClient()
	client.SetTimeout(a.cfg.Fetch.Timeout.Duration)
	if a.cfg.Fetch.UserAgent != "" {
		client.SetUserAgent(a.cfg.Fetch.UserAgent)
	}

	loader := source.NewLoader(client)
	loader.Stdin = cmd.InOrStdin()

	return loader
}

// load reads and parses the document named by args, "-" when absent.
func (a *app) load(ctx context.Context, cmd *cobra.Command, args []string) (*mendxml.Node, string, error) {
	location := source.Stdin
	if len(args) > 0 {
		location = args[0]
	}

	data, err := a.loader(cmd).Load(ctx, location)
	if err != nil {
		return nil, location, err
	}

	root, err := a.parser(cmd).Parse(data)
	if err != nil {
		return nil, location, fmt.Errorf("%s: %w", location, err)
	}

	a.logger.Debug("parsed document",
		zap.String("location", location),
		zap.String("root", root.Describe()))

	return root, location, nil
}

func addParseFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("strict", false, "match closing tags by whole name only")
	cmd.Flags().Int("max-depth", 0, "maximum element nesting (default from config: 10000; 0 or less: unlimited)")
}

// writeOutput writes data to path, or to the command's stdout for "" or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// Package cmd implements the sprig CLI commands.
//
// The root command loads sprig.yaml and dispatches to subcommands that
// diff, apply and inspect scenes.
package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-drift/sprig/pkg/config"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

type globalOptions struct {
	configDir string
	verbose   bool
	cfg       *config.Config
}

// NewRootCommand returns the sprig command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "sprig",
		Short: "Render declarative view scenes into native view patches",
		Long: `Sprig reconciles declarative view trees against a native view tree and
emits the minimal patches that keep them in agreement.

Scenes are YAML files describing a view tree. Use "sprig <command> --help"
for more information about a command.`,
		Version:       Version + " (built " + BuildTime + ")",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(opts.configDir)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Log.Verbose = true
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configDir, "config", ".", "Directory holding sprig.yaml")
	flags.BoolVar(&opts.verbose, "verbose", false, "Log every patch at debug level")

	root.AddCommand(
		newDiffCommand(opts),
		newApplyCommand(opts),
		newTraceCommand(opts),
	)
	return root
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewRootCommand(os.Stdout).Execute()
}

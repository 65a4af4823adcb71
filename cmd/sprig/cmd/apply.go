package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-drift/sprig/cmd/sprig/internal/console"
	"github.com/go-drift/sprig/cmd/sprig/internal/scene"
	"github.com/go-drift/sprig/pkg/core"
	"github.com/go-drift/sprig/pkg/host"
	"github.com/go-drift/sprig/pkg/trace"
)

type applyOptions struct {
	trace    string
	payloads bool
	tree     bool
}

func newApplyCommand(global *globalOptions) *cobra.Command {
	var opts applyOptions
	cmd := &cobra.Command{
		Use:   "apply SCENE.yaml...",
		Short: "Render scenes in turn and print the backend calls",
		Long: `Apply renders each scene as one frame of a host bound to a console
backend, which prints every native call. Identities carry over from one
scene to the next, so later scenes print only what changed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, global, opts, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.trace, "trace", "", "Record applied patches to this file (default from sprig.yaml)")
	flags.BoolVar(&opts.payloads, "payloads", false, "Print payloads as JSON")
	flags.BoolVar(&opts.tree, "tree", false, "Print the final native hierarchy")
	return cmd
}

func runApply(cmd *cobra.Command, global *globalOptions, opts applyOptions, paths []string) error {
	out := cmd.OutOrStdout()
	backend := console.New(out)
	backend.Payloads = opts.payloads

	hostOpts := []host.Option{host.FromConfig(global.cfg)}
	tracePath := opts.trace
	if tracePath == "" {
		tracePath = global.cfg.Trace.Path
	}
	if tracePath != "" {
		rec, err := trace.Open(tracePath, trace.WithApp(global.cfg.App.Name))
		if err != nil {
			return err
		}
		defer rec.Close()
		hostOpts = append(hostOpts, host.WithRecorder(rec))
	}

	var current core.View = core.Empty{}
	h := host.New[int](backend, func() core.View { return current }, hostOpts...)
	defer h.Close()

	for _, path := range paths {
		s, err := scene.Load(path)
		if err != nil {
			return err
		}
		current = s.View()
		h.Invalidate()

		fmt.Fprintf(out, "# %s\n", s.Name)
		stats, err := h.Frame(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		fmt.Fprintf(out, "# %d patches, %d native views\n", stats.Patches, backend.Live())
	}
	if opts.tree {
		fmt.Fprint(out, backend.Tree())
	}
	return nil
}

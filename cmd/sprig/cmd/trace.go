package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-drift/sprig/pkg/patch"
	"github.com/go-drift/sprig/pkg/trace"
)

type traceOptions struct {
	from uint64
	json bool
}

func newTraceCommand(global *globalOptions) *cobra.Command {
	var opts traceOptions
	cmd := &cobra.Command{
		Use:   "trace [FILE]",
		Short: "Print frames recorded by apply --trace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := global.cfg.Trace.Path
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no trace file given and trace.path is not configured")
			}
			return runTrace(cmd, opts, path)
		},
	}
	flags := cmd.Flags()
	flags.Uint64Var(&opts.from, "from", 1, "First frame to print")
	flags.BoolVar(&opts.json, "json", false, "Print one JSON frame per line")
	return cmd
}

type jsonFrame struct {
	Seq     uint64        `json:"seq"`
	App     string        `json:"app,omitempty"`
	Time    time.Time     `json:"time"`
	Patches []patch.Patch `json:"patches"`
}

func runTrace(cmd *cobra.Command, opts traceOptions, path string) error {
	// Opening creates missing files; a typo should not leave one behind.
	if _, err := os.Stat(path); err != nil {
		return err
	}
	rec, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer rec.Close()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	return rec.Iterate(opts.from, func(f trace.Frame) error {
		if opts.json {
			return enc.Encode(jsonFrame{Seq: f.Seq, App: f.App, Time: f.Time, Patches: f.Patches})
		}
		fmt.Fprintf(out, "frame %d  %s  %d patches\n", f.Seq, f.Time.Format(time.RFC3339Nano), len(f.Patches))
		for _, p := range f.Patches {
			fmt.Fprintf(out, "  %s\n", p)
		}
		return nil
	})
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/go-drift/sprig/cmd/sprig/internal/scene"
	"github.com/go-drift/sprig/pkg/core"
)

type diffOptions struct {
	json bool
}

func newDiffCommand(global *globalOptions) *cobra.Command {
	var opts diffOptions
	cmd := &cobra.Command{
		Use:   "diff BEFORE.yaml AFTER.yaml",
		Short: "Print the patches that turn one scene into another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, global, opts, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print one JSON patch per line")
	return cmd
}

func runDiff(cmd *cobra.Command, global *globalOptions, opts diffOptions, beforePath, afterPath string) error {
	before, err := scene.Load(beforePath)
	if err != nil {
		return err
	}
	after, err := scene.Load(afterPath)
	if err != nil {
		return err
	}

	log := logrus.NewEntry(global.cfg.Logger())
	tree := core.NewTree(global.cfg.TreeOptions(log)...)
	if err := tree.Render(before.View()); err != nil {
		return fmt.Errorf("%s: %w", before.Name, err)
	}
	tree.Patches().Drain()
	if err := tree.Render(after.View()); err != nil {
		return fmt.Errorf("%s: %w", after.Name, err)
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for _, p := range tree.Patches().Drain() {
		if opts.json {
			if err := enc.Encode(p); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(out, p)
	}
	return nil
}

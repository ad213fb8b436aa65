package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bqport/bqport/internal/bundler"
	"github.com/bqport/bqport/internal/discovery"
)

func newBundleCommand(flags *Flags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Concatenate the SQL file tree into one topologically ordered script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBundle(cmd, flags, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the script to this path instead of stdout")
	return cmd
}

func runBundle(cmd *cobra.Command, flags *Flags, out string) error {
	r, err := newRenderer(cmd, flags)
	if err != nil {
		return err
	}

	ambientProject := "@default"
	if client, err := requireClient(cmd.Context()); err == nil {
		if p, err := client.ProjectID(cmd.Context()); err == nil {
			ambientProject = p
		}
	}

	files, err := discovery.Walk(flags.RootPath, ambientProject)
	if err != nil {
		return fmt.Errorf("walking %s: %w", flags.RootPath, err)
	}

	res, err := bundler.Build(files, ambientProject)
	if err != nil {
		return fmt.Errorf("bundling: %w", err)
	}
	for _, w := range res.Warnings {
		r.Warning("%s", w)
	}

	if out == "" {
		r.Printf("%s", res.Script)
		return nil
	}
	return writeFile(out, res.Script)
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noventrax/tutor/internal/config"
	"github.com/noventrax/tutor/internal/modes"
)

func newModesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the learning tracks and topics the chat recognizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("file") {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("config error: %w", err)
				}
				file = cfg.ModesFile
			}
			set, err := modes.Load(file)
			if err != nil {
				return err
			}
			return printModes(cmd.OutOrStdout(), set)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file overriding the built-in tracks/topics")
	return cmd
}

func printModes(out io.Writer, set modes.Set) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tTRIGGER\tDIRECTIVE")
	for _, e := range set.Tracks.Entries() {
		fmt.Fprintf(w, "track\t%s\t%s\n", e.Trigger, e.Directive)
	}
	for _, e := range set.Topics.Entries() {
		fmt.Fprintf(w, "topic\t%s\t%s\n", e.Trigger, e.Directive)
	}
	return w.Flush()
}

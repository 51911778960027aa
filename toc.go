package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rabidaudio/cdplay/drive"
	"github.com/rabidaudio/cdplay/player"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type tocEntry struct {
	Track    int    `yaml:"track"`
	Start    int    `yaml:"start"`
	End      int    `yaml:"end"`
	Sectors  int    `yaml:"sectors"`
	Duration string `yaml:"duration"`
	MSF      string `yaml:"msf"`
}

type tocDocument struct {
	Tracks []tocEntry `yaml:"tracks"`
}

func newTOCCmd(opts *options, env environment) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Print the table of contents of the disc",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := env.OpenDrive(*opts)
			if err != nil {
				return fmt.Errorf("failed to open CD drive: %w", err)
			}
			defer d.Close()

			tracks, err := drive.Tracks(d)
			if err != nil {
				return err
			}
			if asYAML {
				return writeTOCYAML(cmd.OutOrStdout(), tracks)
			}
			return writeTOC(cmd.OutOrStdout(), tracks)
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")
	return cmd
}

func tocEntries(tracks []drive.Track) []tocEntry {
	entries := make([]tocEntry, 0, len(tracks))
	for _, t := range tracks {
		entries = append(entries, tocEntry{
			Track:    t.Number,
			Start:    t.Start,
			End:      t.End,
			Sectors:  t.Sectors(),
			Duration: player.FormatTime(t.Seconds()),
			MSF:      t.MSF().String(),
		})
	}
	return entries
}

func writeTOC(w io.Writer, tracks []drive.Track) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "track\tstart\tend\tlength\tmsf\t\n")
	for _, e := range tocEntries(tracks) {
		fmt.Fprintf(tw, "%02d\t%d\t%d\t%s\t%s\t\n", e.Track, e.Start, e.End, e.Duration, e.MSF)
	}
	return tw.Flush()
}

func writeTOCYAML(w io.Writer, tracks []drive.Track) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tocDocument{Tracks: tocEntries(tracks)}); err != nil {
		return err
	}
	return enc.Close()
}

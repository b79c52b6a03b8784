package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/story-map-service/internal/domain"
)

func newProjectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "project [file]",
		Short: "Show the markers each batch puts on the map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batches, err := readBatches(cmd, args, opts.messages)
			if err != nil {
				return err
			}

			sets := make([]domain.MarkerSet, len(batches))
			for i, batch := range batches {
				sets[i] = domain.Project(batch)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, sets)
			}
			rows := make([][]string, 0)
			for b, set := range sets {
				for _, s := range set.Stories {
					rows = append(rows, []string{
						strconv.Itoa(b),
						string(s.ID),
						strconv.FormatFloat(s.Lat, 'f', 5, 64),
						strconv.FormatFloat(s.Lon, 'f', 5, 64),
						s.Title,
						s.Time,
						strconv.Itoa(len(s.Attachments)),
					})
				}
			}
			if err := renderTable(out, []string{"Batch", "Identity", "Lat", "Lon", "Title", "Time", "Media"}, rows); err != nil {
				return err
			}
			fmt.Fprintln(out)
			for b, set := range sets {
				box := "no bounds"
				if set.Box != nil {
					box = fmt.Sprintf("box [%.4f,%.4f]-[%.4f,%.4f]", set.Box.South, set.Box.West, set.Box.North, set.Box.East)
				}
				fmt.Fprintf(out, "batch %d: %d stories, %d mapped, %d excluded, %s\n",
					b, set.Total, len(set.Stories), set.Excluded, faint(box))
			}
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/story-map-service/internal/domain"
)

type identityRow struct {
	Batch      int                  `json:"batch"`
	Position   int                  `json:"position"`
	Identity   domain.StoryIdentity `json:"identity,omitempty"`
	Positional bool                 `json:"positional"`
	Null       bool                 `json:"null"`
}

func newIdentityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "identity [file]",
		Short: "Show the identity each record resolves to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batches, err := readBatches(cmd, args, opts.messages)
			if err != nil {
				return err
			}

			var rows []identityRow
			for b, batch := range batches {
				for i, raw := range batch {
					if raw == nil {
						rows = append(rows, identityRow{Batch: b, Position: i, Null: true})
						continue
					}
					id := domain.ResolveIdentity(raw, i)
					rows = append(rows, identityRow{Batch: b, Position: i, Identity: id, Positional: id.IsPositional()})
				}
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				id := string(r.Identity)
				if r.Null {
					id = faint("(null)")
				} else if r.Positional {
					id = warn(id)
				}
				table = append(table, []string{strconv.Itoa(r.Batch), strconv.Itoa(r.Position), id})
			}
			if err := renderTable(out, []string{"Batch", "Position", "Identity"}, table); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d records in %d batches\n", len(rows), len(batches))
			return nil
		},
	}
}

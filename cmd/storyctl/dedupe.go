package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/story-map-service/internal/domain"
)

type dedupeResult struct {
	Batch    int                    `json:"batch"`
	Received int                    `json:"received"`
	Kept     []domain.StoryIdentity `json:"kept"`
	Dropped  int                    `json:"dropped"`
}

func newDedupeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe [file]",
		Short: "Show which records survive deduplication",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batches, err := readBatches(cmd, args, opts.messages)
			if err != nil {
				return err
			}

			results := make([]dedupeResult, 0, len(batches))
			for b, batch := range batches {
				_, ids := domain.DedupeWithIdentities(batch)
				results = append(results, dedupeResult{
					Batch:    b,
					Received: len(batch),
					Kept:     ids,
					Dropped:  len(batch) - len(ids),
				})
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, results)
			}
			rows := make([][]string, 0)
			for _, r := range results {
				for i, id := range r.Kept {
					rows = append(rows, []string{strconv.Itoa(r.Batch), strconv.Itoa(i), string(id)})
				}
			}
			if err := renderTable(out, []string{"Batch", "Kept", "Identity"}, rows); err != nil {
				return err
			}
			fmt.Fprintln(out)
			for _, r := range results {
				fmt.Fprintf(out, "batch %d: %d received, %d kept, %s\n",
					r.Batch, r.Received, len(r.Kept), faint(fmt.Sprintf("%d dropped", r.Dropped)))
			}
			return nil
		},
	}
}

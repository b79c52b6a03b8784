package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/story-map-service/internal/domain"
)

type rootOptions struct {
	messages bool
	noColor  bool
	jsonOut  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "storyctl",
		Short: "Inspect story batches the way the map service sees them",
		Long: `storyctl reads story batch files (a search response, a bare array of
stories, or a single story object) and shows how the map service resolves,
deduplicates and projects them.

With --messages the file is a JSON array of such batches, one per source
topic message, e.g. data/mock/story_batches.json.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().BoolVar(&opts.messages, "messages", false, "input is an array of batch messages")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "output as JSON")

	root.AddCommand(
		newIdentityCmd(opts),
		newDedupeCmd(opts),
		newProjectCmd(opts),
		newValidateCmd(opts),
	)
	return root
}

// readBatches loads the batches named by args[0], or stdin for "-" or no argument.
func readBatches(cmd *cobra.Command, args []string, messages bool) ([][]domain.RawStory, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return decodeBatches(data, messages)
}

func decodeBatches(data []byte, messages bool) ([][]domain.RawStory, error) {
	if !messages {
		batch, err := domain.ParseBatch(data)
		if err != nil {
			return nil, err
		}
		return [][]domain.RawStory{batch}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode message array: %w", err)
	}
	batches := make([][]domain.RawStory, 0, len(raw))
	for i, m := range raw {
		batch, err := domain.ParseBatch(m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

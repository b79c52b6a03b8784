// Command storyctl inspects story batches offline: how records resolve to
// identities, what deduplication keeps, what the map would show, and whether
// a batch file upholds the projection invariants.
//
// Usage:
//
//	storyctl identity data/mock/story_batches.json --messages
//	storyctl project batch.json --json
//	storyctl validate data/mock/story_batches.json --messages
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/story-map-service/internal/domain"
	"github.com/couchcryptid/story-map-service/internal/mapstate"
)

// errValidation is returned when any phase fails, so the exit code is 1.
var errValidation = errors.New("validation failed")

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check deduplication and projection invariants over batch files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batches, err := readBatches(cmd, args, opts.messages)
			if err != nil {
				return err
			}
			if !report(cmd.OutOrStdout(), runPhases(batches)) {
				return errValidation
			}
			return nil
		},
	}
}

func runPhases(batches [][]domain.RawStory) []*phase {
	// A fixed clock keeps ProjectedAt equal across repeated projections.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	return []*phase{
		validateDedupe(batches),
		validateIdentityStability(batches),
		validateProjection(batches),
		validateMemo(batches),
		validateViewport(batches),
	}
}

func report(w io.Writer, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := pass("PASS")
		if !p.passed() {
			status = fail(fmt.Sprintf("FAIL (%d errors)", len(p.errors)))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Fprintf(w, "  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	return allPassed
}

// validateDedupe checks that deduplication keeps first occurrences in input
// order, never keeps two stories with one identity, and is idempotent.
func validateDedupe(batches [][]domain.RawStory) *phase {
	p := &phase{name: "Deduplication"}

	for b, batch := range batches {
		kept, ids := domain.DedupeWithIdentities(batch)
		if len(kept) != len(ids) {
			p.errorf("batch %d: %d stories but %d identities", b, len(kept), len(ids))
			continue
		}

		first := make(map[domain.StoryIdentity]int)
		for i, raw := range batch {
			if raw == nil {
				continue
			}
			id := domain.ResolveIdentity(raw, i)
			if _, ok := first[id]; !ok {
				first[id] = i
			}
		}
		if len(first) != len(ids) {
			p.errorf("batch %d: %d distinct identities but %d kept", b, len(first), len(ids))
		}

		last := -1
		for _, id := range ids {
			pos, ok := first[id]
			if !ok {
				p.errorf("batch %d: kept %s which is not in the input", b, id)
				continue
			}
			if pos <= last {
				p.errorf("batch %d: %s kept out of input order", b, id)
			}
			last = pos
		}

		again := domain.Dedupe(kept)
		if diff := cmp.Diff(kept, again); diff != "" {
			p.errorf("batch %d: dedupe is not idempotent (-once +twice):\n%s", b, diff)
		}
	}
	return p
}

// validateIdentityStability checks that identities survive a JSON round trip,
// which reorders object keys.
func validateIdentityStability(batches [][]domain.RawStory) *phase {
	p := &phase{name: "Identity stability"}

	for b, batch := range batches {
		data, err := json.Marshal(batch)
		if err != nil {
			p.errorf("batch %d: marshal: %v", b, err)
			continue
		}
		reparsed, err := domain.ParseBatch(data)
		if err != nil {
			p.errorf("batch %d: reparse: %v", b, err)
			continue
		}
		if len(reparsed) != len(batch) {
			p.errorf("batch %d: %d records after round trip, want %d", b, len(reparsed), len(batch))
			continue
		}
		for i := range batch {
			if batch[i] == nil {
				continue
			}
			before := domain.ResolveIdentity(batch[i], i)
			after := domain.ResolveIdentity(reparsed[i], i)
			if before != after {
				p.errorf("batch %d position %d: identity %s became %s", b, i, before, after)
			}
		}
		if domain.Fingerprint(batch) != domain.Fingerprint(reparsed) {
			p.errorf("batch %d: fingerprint changed across round trip", b)
		}
	}
	return p
}

// validateProjection checks the MarkerSet bookkeeping: every mapped story has
// in-range coordinates, bounds line up with stories, and counts add up.
func validateProjection(batches [][]domain.RawStory) *phase {
	p := &phase{name: "Projection"}

	for b, batch := range batches {
		set := domain.Project(batch)

		if set.Total != len(set.StoryIDs) {
			p.errorf("batch %d: total %d but %d story ids", b, set.Total, len(set.StoryIDs))
		}
		if set.Total != len(set.Stories)+set.Excluded {
			p.errorf("batch %d: total %d != %d mapped + %d excluded", b, set.Total, len(set.Stories), set.Excluded)
		}
		if len(set.Bounds) != len(set.Stories) {
			p.errorf("batch %d: %d bounds for %d stories", b, len(set.Bounds), len(set.Stories))
		}
		if (set.Box == nil) != (len(set.Stories) == 0) {
			p.errorf("batch %d: bounding box presence does not match %d mapped stories", b, len(set.Stories))
		}

		for i, s := range set.Stories {
			if !s.HasCoordinates {
				p.errorf("batch %d: %s mapped without coordinates", b, s.ID)
			}
			if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
				p.errorf("batch %d: %s has out-of-range coordinates (%f, %f)", b, s.ID, s.Lat, s.Lon)
			}
			if i < len(set.Bounds) && set.Bounds[i] != (domain.LatLon{s.Lat, s.Lon}) {
				p.errorf("batch %d: bounds[%d] does not match %s", b, i, s.ID)
			}
			if s.Title == "" {
				p.errorf("batch %d: %s has an empty title", b, s.ID)
			}
		}
	}
	return p
}

// validateMemo checks that projecting an unchanged batch twice reuses the
// first result.
func validateMemo(batches [][]domain.RawStory) *phase {
	p := &phase{name: "Projection memo"}

	for b, batch := range batches {
		projector := domain.NewProjector()
		first, recomputed := projector.Project(batch)
		if !recomputed {
			p.errorf("batch %d: fresh projector reported a cached result", b)
		}
		second, recomputed := projector.Project(batch)
		if recomputed {
			p.errorf("batch %d: unchanged batch was projected again", b)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			p.errorf("batch %d: cached projection differs (-first +second):\n%s", b, diff)
		}
		if diff := cmp.Diff(domain.Project(batch), first); diff != "" {
			p.errorf("batch %d: memoised projection differs from direct (-direct +memo):\n%s", b, diff)
		}
	}
	return p
}

// validateViewport checks that re-committing the same projection does not
// refit the map, and that an empty projection never does.
func validateViewport(batches [][]domain.RawStory) *phase {
	p := &phase{name: "Viewport"}

	for b, batch := range batches {
		set := domain.Project(batch)

		var v mapstate.Viewport
		refit := v.Fit(set.Bounds)
		if refit != (len(set.Bounds) > 0) {
			p.errorf("batch %d: first fit refit=%t with %d bounds", b, refit, len(set.Bounds))
		}
		if v.Fit(set.Bounds) {
			p.errorf("batch %d: unchanged bounds refit the viewport", b)
		}
	}
	return p
}

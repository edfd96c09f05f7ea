// Package state implements the state builder: it streams
// constraint alignments in order, strips gaps while recording the
// originating column of every residue, and freezes each constraint's
// gapped width.
package state

import (
	"fmt"

	"gcm/internal/fio"
	"gcm/internal/gcmerr"
)

// Pos identifies a single column of a single constraint: Constraint is
// the constraint's index in input order, Column is the 0-based column
// within that constraint's gapped alignment.
type Pos struct {
	Constraint int
	Column     int
}

// State is the immutable registry built from a set of constraint
// alignments: sequence names in insertion order, a name-to-id map, the
// per-sequence list of (constraint, column) coordinates for every
// surviving (non-gap) residue, and the gapped width of each constraint.
type State struct {
	Names        []string
	NameIDs      map[string]int
	Coords       [][]Pos
	ColumnCounts []int
}

// NumConstraints returns the number of constraint alignments folded
// into this state.
func (s *State) NumConstraints() int { return len(s.ColumnCounts) }

// SequenceID returns the internal id for name, if registered.
func (s *State) SequenceID(name string) (int, bool) {
	id, ok := s.NameIDs[name]
	return id, ok
}

// Build streams each constraint alignment file in paths, in order, and
// returns the resulting State. A duplicate sequence name across (or
// within) files fails with gcmerr.DuplicateName; a constraint whose
// records disagree on gapped length fails with gcmerr.RaggedAlignment.
func Build(paths []string) (*State, error) {
	s := &State{NameIDs: make(map[string]int)}

	for cid, path := range paths {
		width := -1
		seen := false
		err := fio.ScanFasta(path, func(rec fio.Record) error {
			seen = true
			if _, dup := s.NameIDs[rec.Name]; dup {
				return fmt.Errorf("%w: %q (in %q)", gcmerr.DuplicateName, rec.Name, path)
			}
			if width == -1 {
				width = len(rec.Seq)
			} else if len(rec.Seq) != width {
				return fmt.Errorf("%w: %q: expected width %d, got %d", gcmerr.RaggedAlignment, path, width, len(rec.Seq))
			}

			coords := make([]Pos, 0, len(rec.Seq))
			for col, b := range rec.Seq {
				if !fio.IsGap(b) {
					coords = append(coords, Pos{Constraint: cid, Column: col})
				}
			}

			id := len(s.Names)
			s.Names = append(s.Names, rec.Name)
			s.NameIDs[rec.Name] = id
			s.Coords = append(s.Coords, coords)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if !seen {
			width = 0
		}
		s.ColumnCounts = append(s.ColumnCounts, width)
	}

	return s, nil
}

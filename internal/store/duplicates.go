package store

import (
	"database/sql"
	"fmt"
)

// DuplicateAssignment is the resolved outcome for one duplicate group: the
// elected primary plus every other member pointing at it.
type DuplicateAssignment struct {
	GroupID      string
	PrimaryID    int64
	DuplicateIDs []int64
}

// ApplyDuplicateGroups resets the duplicate flags on every track and applies
// the given group assignments, all in one transaction. Tracks not named in
// any assignment end up as singletons with cleared duplicate fields.
func (s *Store) ApplyDuplicateGroups(groups []DuplicateAssignment) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			UPDATE tracks SET is_duplicate = 0, primary_track_id = NULL, duplicate_group_id = ''
		`); err != nil {
			return fmt.Errorf("failed to reset duplicate flags: %w", err)
		}

		for _, group := range groups {
			if _, err := tx.Exec(`
				UPDATE tracks SET duplicate_group_id = ? WHERE id = ?
			`, group.GroupID, group.PrimaryID); err != nil {
				return fmt.Errorf("failed to mark primary track: %w", err)
			}

			for _, id := range group.DuplicateIDs {
				if _, err := tx.Exec(`
					UPDATE tracks SET is_duplicate = 1, primary_track_id = ?, duplicate_group_id = ?
					WHERE id = ?
				`, group.PrimaryID, group.GroupID, id); err != nil {
					return fmt.Errorf("failed to mark duplicate track: %w", err)
				}
			}
		}

		return nil
	})
}

// CountDuplicates returns the number of tracks currently flagged duplicate
func (s *Store) CountDuplicates() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tracks WHERE is_duplicate = 1").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count duplicates: %w", err)
	}
	return count, nil
}

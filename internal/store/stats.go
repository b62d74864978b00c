package store

import "fmt"

// StatusCounts returns the number of files per status, ordered by status.
func (s *Store) StatusCounts() ([]StatusCount, error) {
	rows, err := s.db.Query("SELECT status, COUNT(*) FROM files GROUP BY status ORDER BY status")
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()
	var counts []StatusCount
	for rows.Next() {
		var (
			c      StatusCount
			status string
		)
		if err := rows.Scan(&status, &c.Files); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		c.Status = Status(status)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// MemberUsage aggregates members across files whose rewrite is on disk or
// pending, most used first. Vetoed and failed files are excluded since
// nothing of theirs was imported.
func (s *Store) MemberUsage() ([]MemberUsage, error) {
	rows, err := s.db.Query(`
SELECT m.name, m.kind, COUNT(DISTINCT m.file_id),
       (SELECT COUNT(*) FROM rewrites r
          JOIN files rf ON rf.id = r.file_id
         WHERE r.member = m.name
           AND rf.status IN (?, ?)
           AND (r.category IN ('value', 'markup')) = (m.kind = 'value'))
  FROM members m
  JOIN files f ON f.id = m.file_id
 WHERE f.status IN (?, ?)
 GROUP BY m.name, m.kind
 ORDER BY COUNT(DISTINCT m.file_id) DESC, m.name, m.kind`,
		string(StatusWritten), string(StatusPending),
		string(StatusWritten), string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("member usage: %w", err)
	}
	defer rows.Close()
	var usage []MemberUsage
	for rows.Next() {
		var u MemberUsage
		if err := rows.Scan(&u.Name, &u.Kind, &u.Files, &u.Rewrites); err != nil {
			return nil, fmt.Errorf("scan member usage: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// TotalRewrites counts rewrites recorded for files in any of the given
// statuses; with no statuses it counts all of them.
func (s *Store) TotalRewrites(statuses ...Status) (int, error) {
	query := "SELECT COUNT(*) FROM rewrites"
	var args []any
	if len(statuses) > 0 {
		query += " JOIN files ON files.id = rewrites.file_id WHERE files.status IN (" + placeholderList(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("total rewrites: %w", err)
	}
	return n, nil
}

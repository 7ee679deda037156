package store

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
)

// Matches persists scored graduate/job associations.
type Matches struct {
	db *sql.DB
}

// NewMatches creates the match store.
func NewMatches(db *sql.DB) *Matches {
	return &Matches{db: db}
}

// Upsert writes the score for a (graduate, job) pair. The score is always
// updated; status is set to pending only when the row is first inserted, so a
// record a human already accepted or rejected keeps its status across
// re-matches. The insert-vs-update branch is atomic in SQLite, which is what
// lets graduate-triggered and job-triggered runs target overlapping pairs
// without in-process locking.
func (s *Matches) Upsert(graduateID, jobID string, score float64) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO matches (graduate_id, job_id, score, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(graduate_id, job_id) DO UPDATE SET
			score = excluded.score,
			updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query, graduateID, jobID, score, MatchStatusPending, now, now)
	if err != nil {
		return errors.Wrapf(err, "upsert match %s/%s", graduateID, jobID)
	}

	return nil
}

// Get retrieves the match for a (graduate, job) pair.
func (s *Matches) Get(graduateID, jobID string) (*Match, error) {
	query := `
		SELECT graduate_id, job_id, score, status, created_at, updated_at
		FROM matches WHERE graduate_id = ? AND job_id = ?
	`

	var m Match
	err := s.db.QueryRow(query, graduateID, jobID).Scan(
		&m.GraduateID, &m.JobID, &m.Score, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf("match not found: %s/%s", graduateID, jobID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get match %s/%s", graduateID, jobID)
	}

	return &m, nil
}

// SetStatus records a human accept/reject decision.
func (s *Matches) SetStatus(graduateID, jobID, status string) error {
	switch status {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusRejected:
	default:
		return errors.Newf("invalid match status: %s", status)
	}

	res, err := s.db.Exec(
		`UPDATE matches SET status = ?, updated_at = ? WHERE graduate_id = ? AND job_id = ?`,
		status, time.Now().UTC(), graduateID, jobID)
	if err != nil {
		return errors.Wrapf(err, "set status for match %s/%s", graduateID, jobID)
	}

	return requireRow(res, "match", graduateID+"/"+jobID)
}

// ListForGraduate returns the graduate's matches ordered by score descending.
func (s *Matches) ListForGraduate(graduateID string) ([]*Match, error) {
	query := `
		SELECT graduate_id, job_id, score, status, created_at, updated_at
		FROM matches WHERE graduate_id = ?
		ORDER BY score DESC
	`

	rows, err := s.db.Query(query, graduateID)
	if err != nil {
		return nil, errors.Wrapf(err, "list matches for graduate %s", graduateID)
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.GraduateID, &m.JobID, &m.Score, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan match")
		}
		matches = append(matches, &m)
	}

	return matches, rows.Err()
}

// CountForGraduate returns how many match records the graduate has.
func (s *Matches) CountForGraduate(graduateID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM matches WHERE graduate_id = ?`, graduateID).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, "count matches for graduate %s", graduateID)
	}

	return count, nil
}

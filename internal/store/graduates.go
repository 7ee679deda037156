package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
)

// Graduates persists graduate profiles and their assessment state.
type Graduates struct {
	db *sql.DB
}

// NewGraduates creates the graduate store.
func NewGraduates(db *sql.DB) *Graduates {
	return &Graduates{db: db}
}

// Put inserts or fully replaces a graduate record.
func (s *Graduates) Put(g *Graduate) error {
	skills, err := json.Marshal(g.Skills)
	if err != nil {
		return errors.Wrap(err, "marshal skills")
	}

	history, err := json.Marshal(g.WorkHistory)
	if err != nil {
		return errors.Wrap(err, "marshal work history")
	}

	embedding, err := marshalEmbedding(g.Embedding)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO graduates (
			id, skills, education, experience, work_history, embedding,
			attempts, needs_retake, last_score, question_set_version, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			skills = excluded.skills,
			education = excluded.education,
			experience = excluded.experience,
			work_history = excluded.work_history,
			embedding = excluded.embedding,
			attempts = excluded.attempts,
			needs_retake = excluded.needs_retake,
			last_score = excluded.last_score,
			question_set_version = excluded.question_set_version,
			updated_at = excluded.updated_at
	`

	version := g.Assessment.QuestionSetVersion
	if version <= 0 {
		version = 1
	}

	_, err = s.db.Exec(query,
		g.ID, string(skills), g.Education, g.Experience, string(history), embedding,
		g.Assessment.Attempts, boolToInt(g.Assessment.NeedsRetake),
		g.Assessment.LastScore, version, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrapf(err, "put graduate %s", g.ID)
	}

	return nil
}

// Get retrieves a graduate by id.
func (s *Graduates) Get(id string) (*Graduate, error) {
	query := `
		SELECT id, skills, education, experience, work_history, embedding,
		       attempts, needs_retake, last_score, question_set_version, updated_at
		FROM graduates WHERE id = ?
	`

	row := s.db.QueryRow(query, id)
	g, err := scanGraduate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf("graduate not found: %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get graduate %s", id)
	}

	return g, nil
}

// ListWithEmbeddings returns up to limit graduates that carry an embedding.
func (s *Graduates) ListWithEmbeddings(limit int) ([]*Graduate, error) {
	query := `
		SELECT id, skills, education, experience, work_history, embedding,
		       attempts, needs_retake, last_score, question_set_version, updated_at
		FROM graduates
		WHERE embedding IS NOT NULL AND embedding != ''
		ORDER BY updated_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list graduates with embeddings")
	}
	defer rows.Close()

	var graduates []*Graduate
	for rows.Next() {
		g, err := scanGraduate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan graduate")
		}
		graduates = append(graduates, g)
	}

	return graduates, rows.Err()
}

// SetEmbedding stores a freshly generated embedding for the graduate.
func (s *Graduates) SetEmbedding(id string, embedding []float64) error {
	encoded, err := marshalEmbedding(embedding)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`UPDATE graduates SET embedding = ?, updated_at = ? WHERE id = ?`,
		encoded, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrapf(err, "set embedding for graduate %s", id)
	}

	return requireRow(res, "graduate", id)
}

// RecordBelowThreshold marks the graduate as needing a retake after a
// re-match found their best score under the configured minimum: lastScore is
// recorded and the question set version bumped so the next assessment request
// produces a fresh question set.
func (s *Graduates) RecordBelowThreshold(id string, score float64) error {
	query := `
		UPDATE graduates
		SET needs_retake = 1,
		    last_score = ?,
		    question_set_version = question_set_version + 1,
		    updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.Exec(query, score, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrapf(err, "record below-threshold outcome for graduate %s", id)
	}

	return requireRow(res, "graduate", id)
}

func scanGraduate(row interface{ Scan(...any) error }) (*Graduate, error) {
	var (
		g           Graduate
		skills      string
		history     string
		embedding   sql.NullString
		needsRetake int
	)

	err := row.Scan(&g.ID, &skills, &g.Education, &g.Experience, &history, &embedding,
		&g.Assessment.Attempts, &needsRetake, &g.Assessment.LastScore,
		&g.Assessment.QuestionSetVersion, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(skills), &g.Skills); err != nil {
		return nil, errors.Wrap(err, "decode skills")
	}
	if err := json.Unmarshal([]byte(history), &g.WorkHistory); err != nil {
		return nil, errors.Wrap(err, "decode work history")
	}
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &g.Embedding); err != nil {
			return nil, errors.Wrap(err, "decode embedding")
		}
	}
	g.Assessment.NeedsRetake = needsRetake != 0

	return &g, nil
}

func marshalEmbedding(embedding []float64) (sql.NullString, error) {
	if len(embedding) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(embedding)
	if err != nil {
		return sql.NullString{}, errors.Wrap(err, "marshal embedding")
	}

	return sql.NullString{String: string(data), Valid: true}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result, kind, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Newf("%s not found: %s", kind, id)
	}
	return nil
}

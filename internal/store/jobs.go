package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
)

// Jobs persists job postings.
type Jobs struct {
	db *sql.DB
}

// NewJobs creates the job store.
func NewJobs(db *sql.DB) *Jobs {
	return &Jobs{db: db}
}

// Put inserts or fully replaces a job posting.
func (s *Jobs) Put(j *Job) error {
	skills, err := json.Marshal(j.Skills)
	if err != nil {
		return errors.Wrap(err, "marshal skills")
	}

	embedding, err := marshalEmbedding(j.Embedding)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO jobs (id, title, skills, education, requirements, active, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			skills = excluded.skills,
			education = excluded.education,
			requirements = excluded.requirements,
			active = excluded.active,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`

	_, err = s.db.Exec(query,
		j.ID, j.Title, string(skills), j.Education, j.Requirements,
		boolToInt(j.Active), embedding, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrapf(err, "put job %s", j.ID)
	}

	return nil
}

// Get retrieves a job posting by id.
func (s *Jobs) Get(id string) (*Job, error) {
	query := `
		SELECT id, title, skills, education, requirements, active, embedding, updated_at
		FROM jobs WHERE id = ?
	`

	row := s.db.QueryRow(query, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf("job not found: %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get job %s", id)
	}

	return j, nil
}

// ListActiveWithEmbeddings returns up to limit active postings that carry an
// embedding, most recently updated first.
func (s *Jobs) ListActiveWithEmbeddings(limit int) ([]*Job, error) {
	query := `
		SELECT id, title, skills, education, requirements, active, embedding, updated_at
		FROM jobs
		WHERE active = 1 AND embedding IS NOT NULL AND embedding != ''
		ORDER BY updated_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list active jobs with embeddings")
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan job")
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// SetEmbedding stores a freshly generated embedding for the posting.
func (s *Jobs) SetEmbedding(id string, embedding []float64) error {
	encoded, err := marshalEmbedding(embedding)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`UPDATE jobs SET embedding = ?, updated_at = ? WHERE id = ?`,
		encoded, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrapf(err, "set embedding for job %s", id)
	}

	return requireRow(res, "job", id)
}

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var (
		j         Job
		skills    string
		embedding sql.NullString
		active    int
	)

	err := row.Scan(&j.ID, &j.Title, &skills, &j.Education, &j.Requirements,
		&active, &embedding, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(skills), &j.Skills); err != nil {
		return nil, errors.Wrap(err, "decode skills")
	}
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &j.Embedding); err != nil {
			return nil, errors.Wrap(err, "decode embedding")
		}
	}
	j.Active = active != 0

	return &j, nil
}

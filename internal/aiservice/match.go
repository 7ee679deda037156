package aiservice

import "context"

// MatchWeights tunes the remote scorer's factor weighting. The weighting
// formula itself is the service's business; these values pass through opaquely.
type MatchWeights struct {
	Embedding  *float64 `json:"embedding,omitempty"`
	Skills     *float64 `json:"skills,omitempty"`
	Education  *float64 `json:"education,omitempty"`
	Experience *float64 `json:"experience,omitempty"`
	Freshness  *float64 `json:"freshness,omitempty"`
}

// MatchOptions narrows and tunes a match request.
type MatchOptions struct {
	MinScore *float64      `json:"min_score,omitempty"`
	Limit    *int          `json:"limit,omitempty"`
	Weights  *MatchWeights `json:"weights,omitempty"`
}

// JobMetadata describes a job posting beyond its embedding.
type JobMetadata struct {
	Skills          []string `json:"skills,omitempty"`
	Education       string   `json:"education,omitempty"`
	ExperienceYears float64  `json:"experience_years,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

// JobEmbedding is one candidate job posting sent to the scorer.
type JobEmbedding struct {
	ID        string       `json:"id"`
	Embedding []float64    `json:"embedding"`
	Metadata  *JobMetadata `json:"metadata,omitempty"`
}

// GraduateMetadata describes the graduate beyond their embedding.
type GraduateMetadata struct {
	Skills               []string `json:"skills,omitempty"`
	Education            string   `json:"education,omitempty"`
	ExperienceYears      float64  `json:"experience_years,omitempty"`
	LatestExperienceYear int      `json:"latest_experience_year,omitempty"`
}

// MatchFactors breaks a score down per factor, when the service provides it.
type MatchFactors struct {
	Embedding  float64 `json:"embedding"`
	Skills     float64 `json:"skills"`
	Education  float64 `json:"education"`
	Experience float64 `json:"experience"`
	Freshness  float64 `json:"freshness"`
}

// MatchItem is one scored candidate. Score is in [0, 1].
type MatchItem struct {
	ID      string        `json:"id"`
	Score   float64       `json:"score"`
	Factors *MatchFactors `json:"factors,omitempty"`
}

// GraduatePayload is one graduate in a batch match request.
type GraduatePayload struct {
	ID        string            `json:"id,omitempty"`
	Embedding []float64         `json:"embedding"`
	Metadata  *GraduateMetadata `json:"metadata,omitempty"`
}

// BatchMatchResult carries the matches computed for one graduate of a batch.
type BatchMatchResult struct {
	GraduateID string      `json:"graduate_id,omitempty"`
	Matches    []MatchItem `json:"matches"`
}

type matchRequest struct {
	GraduateEmbedding []float64         `json:"graduate_embedding"`
	JobEmbeddings     []JobEmbedding    `json:"job_embeddings"`
	GraduateMetadata  *GraduateMetadata `json:"graduate_metadata,omitempty"`
	Options           *MatchOptions     `json:"options,omitempty"`
}

type matchResponse struct {
	Matches []MatchItem `json:"matches"`
}

type matchBatchRequest struct {
	Graduates     []GraduatePayload `json:"graduates"`
	JobEmbeddings []JobEmbedding    `json:"job_embeddings"`
	Options       *MatchOptions     `json:"options,omitempty"`
}

type matchBatchResponse struct {
	Results []BatchMatchResult `json:"results"`
}

// Match scores the graduate embedding against the candidate job embeddings.
func (c *Client) Match(ctx context.Context, graduateEmbedding []float64, jobs []JobEmbedding, metadata *GraduateMetadata, opts *MatchOptions) ([]MatchItem, error) {
	req := matchRequest{
		GraduateEmbedding: graduateEmbedding,
		JobEmbeddings:     jobs,
		GraduateMetadata:  metadata,
		Options:           opts,
	}

	var resp matchResponse
	if err := c.postJSON(ctx, "/match", req, &resp); err != nil {
		return nil, err
	}

	return resp.Matches, nil
}

// MatchBatch scores several graduates against a shared job list in one call.
func (c *Client) MatchBatch(ctx context.Context, graduates []GraduatePayload, jobs []JobEmbedding, opts *MatchOptions) ([]BatchMatchResult, error) {
	req := matchBatchRequest{
		Graduates:     graduates,
		JobEmbeddings: jobs,
		Options:       opts,
	}

	var resp matchBatchResponse
	if err := c.postJSON(ctx, "/match/batch", req, &resp); err != nil {
		return nil, err
	}

	return resp.Results, nil
}

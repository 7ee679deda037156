// Package gateway exposes the AI operations the platform consumes. Idempotent
// operations are cache-backed so repeated identical inputs inside the TTL
// window collapse to a single upstream call; everything else goes straight to
// the resilient client.
package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talenthub/ai-gateway/internal/aiservice"
	"github.com/talenthub/ai-gateway/internal/cache"
)

// aiClient is the slice of the service client the gateway needs.
type aiClient interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Match(ctx context.Context, graduateEmbedding []float64, jobs []aiservice.JobEmbedding, metadata *aiservice.GraduateMetadata, opts *aiservice.MatchOptions) ([]aiservice.MatchItem, error)
	MatchBatch(ctx context.Context, graduates []aiservice.GraduatePayload, jobs []aiservice.JobEmbedding, opts *aiservice.MatchOptions) ([]aiservice.BatchMatchResult, error)
	GenerateFeedback(ctx context.Context, profile aiservice.GraduateProfile, requirements aiservice.JobRequirements, opts *aiservice.FeedbackOptions) (*aiservice.Feedback, error)
	GenerateQuestions(ctx context.Context, skills []string, opts *aiservice.QuestionOptions) ([]aiservice.AssessmentQuestion, error)
	CheckHealth(ctx context.Context) (*aiservice.Health, error)
}

// Config controls the gateway-owned caches.
type Config struct {
	CacheTTL        time.Duration
	CacheMaxEntries int
}

// Gateway is the public entry point for AI operations. Construct one per
// process and pass it to consumers; tests create isolated instances.
type Gateway struct {
	client aiClient
	logger *zap.Logger

	// Separate namespaces: identical text must not collide across profile
	// and job embeddings, and feedback keys are full-request hashes.
	profileEmbeddings *cache.Cache[[]float64]
	jobEmbeddings     *cache.Cache[[]float64]
	feedback          *cache.Cache[aiservice.Feedback]
}

// New creates a Gateway over the given client.
func New(client aiClient, cfg Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gateway{
		client:            client,
		logger:            logger,
		profileEmbeddings: cache.New[[]float64](cfg.CacheTTL, cfg.CacheMaxEntries),
		jobEmbeddings:     cache.New[[]float64](cfg.CacheTTL, cfg.CacheMaxEntries),
		feedback:          cache.New[aiservice.Feedback](cfg.CacheTTL, cfg.CacheMaxEntries),
	}
}

// GenerateProfileEmbedding embeds graduate profile text. Empty input fails
// with a bad-request error before any network call.
func (g *Gateway) GenerateProfileEmbedding(ctx context.Context, text string) ([]float64, error) {
	return g.embedding(ctx, "profile", g.profileEmbeddings, text)
}

// GenerateJobEmbedding embeds job posting text. Empty input fails with a
// bad-request error before any network call.
func (g *Gateway) GenerateJobEmbedding(ctx context.Context, text string) ([]float64, error) {
	return g.embedding(ctx, "job", g.jobEmbeddings, text)
}

func (g *Gateway) embedding(ctx context.Context, kind string, store *cache.Cache[[]float64], text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, aiservice.BadRequest(kind + " text is required")
	}

	key := cache.Key(text)
	if vector, ok := store.Get(key); ok {
		g.logger.Debug("embedding cache hit", zap.String("kind", kind))
		return vector, nil
	}

	vector, err := g.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	store.Set(key, vector)
	return vector, nil
}

// GenerateEmbeddings embeds several texts in one upstream call. Results are
// not cached: batches are used for backfills where inputs rarely repeat.
func (g *Gateway) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	trimmed := make([]string, 0, len(texts))
	for _, text := range texts {
		if t := strings.TrimSpace(text); t != "" {
			trimmed = append(trimmed, t)
		}
	}

	if len(trimmed) == 0 {
		return nil, aiservice.BadRequest("at least one non-empty text is required")
	}

	return g.client.EmbedBatch(ctx, trimmed)
}

// GenerateFeedback produces a skill gap analysis. Feedback generation is
// expensive and deterministic enough to reuse, so the full serialized request
// is the cache key.
func (g *Gateway) GenerateFeedback(ctx context.Context, profile aiservice.GraduateProfile, requirements aiservice.JobRequirements, opts *aiservice.FeedbackOptions) (*aiservice.Feedback, error) {
	key, err := feedbackKey(profile, requirements, opts)
	if err != nil {
		return nil, err
	}

	if cached, ok := g.feedback.Get(key); ok {
		g.logger.Debug("feedback cache hit")
		return &cached, nil
	}

	result, err := g.client.GenerateFeedback(ctx, profile, requirements, opts)
	if err != nil {
		return nil, err
	}

	g.feedback.Set(key, *result)
	return result, nil
}

func feedbackKey(profile aiservice.GraduateProfile, requirements aiservice.JobRequirements, opts *aiservice.FeedbackOptions) (string, error) {
	serialized, err := json.Marshal(struct {
		Profile      aiservice.GraduateProfile  `json:"profile"`
		Requirements aiservice.JobRequirements  `json:"requirements"`
		Options      *aiservice.FeedbackOptions `json:"options,omitempty"`
	}{profile, requirements, opts})
	if err != nil {
		return "", err
	}

	return cache.Key(string(serialized)), nil
}

// FindMatches scores the graduate against the candidate jobs. Never cached:
// job postings are a moving target. An empty candidate list short-circuits to
// an empty result without a network call.
func (g *Gateway) FindMatches(ctx context.Context, graduateEmbedding []float64, jobs []aiservice.JobEmbedding, metadata *aiservice.GraduateMetadata, opts *aiservice.MatchOptions) ([]aiservice.MatchItem, error) {
	if len(jobs) == 0 {
		return []aiservice.MatchItem{}, nil
	}

	return g.client.Match(ctx, graduateEmbedding, jobs, metadata, opts)
}

// FindMatchesBatch scores several graduates against a shared candidate list.
// Empty inputs short-circuit without a network call.
func (g *Gateway) FindMatchesBatch(ctx context.Context, graduates []aiservice.GraduatePayload, jobs []aiservice.JobEmbedding, opts *aiservice.MatchOptions) ([]aiservice.BatchMatchResult, error) {
	if len(graduates) == 0 || len(jobs) == 0 {
		return []aiservice.BatchMatchResult{}, nil
	}

	return g.client.MatchBatch(ctx, graduates, jobs, opts)
}

// GenerateAssessmentQuestions produces a question set for the given skills.
// Not cached: repeated attempts should see varied questions. An empty skill
// list fails with a bad-request error before any network call.
func (g *Gateway) GenerateAssessmentQuestions(ctx context.Context, skills []string, opts *aiservice.QuestionOptions) ([]aiservice.AssessmentQuestion, error) {
	cleaned := make([]string, 0, len(skills))
	for _, skill := range skills {
		if s := strings.TrimSpace(skill); s != "" {
			cleaned = append(cleaned, s)
		}
	}

	if len(cleaned) == 0 {
		return nil, aiservice.BadRequest("at least one skill is required")
	}

	return g.client.GenerateQuestions(ctx, cleaned, opts)
}

// Health reports the AI service's own health endpoint.
func (g *Gateway) Health(ctx context.Context) (*aiservice.Health, error) {
	return g.client.CheckHealth(ctx)
}

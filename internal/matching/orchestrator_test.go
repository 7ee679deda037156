package matching

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/talenthub/ai-gateway/internal/aiservice"
	"github.com/talenthub/ai-gateway/internal/queue"
	"github.com/talenthub/ai-gateway/internal/store"
)

type stubGateway struct {
	matches      []aiservice.MatchItem
	batchResults []aiservice.BatchMatchResult

	batchCalls    int
	lastBatchOpts *aiservice.MatchOptions
	batchSizes    []int
}

func (s *stubGateway) FindMatches(context.Context, []float64, []aiservice.JobEmbedding, *aiservice.GraduateMetadata, *aiservice.MatchOptions) ([]aiservice.MatchItem, error) {
	return s.matches, nil
}

func (s *stubGateway) FindMatchesBatch(_ context.Context, graduates []aiservice.GraduatePayload, _ []aiservice.JobEmbedding, opts *aiservice.MatchOptions) ([]aiservice.BatchMatchResult, error) {
	s.batchCalls++
	s.lastBatchOpts = opts
	s.batchSizes = append(s.batchSizes, len(graduates))
	return s.batchResults, nil
}

type stubGraduates struct {
	byID map[string]*store.Graduate
	all  []*store.Graduate

	belowThreshold map[string]float64
}

func (s *stubGraduates) Get(id string) (*store.Graduate, error) {
	g, ok := s.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return g, nil
}

func (s *stubGraduates) ListWithEmbeddings(limit int) ([]*store.Graduate, error) {
	if len(s.all) > limit {
		return s.all[:limit], nil
	}
	return s.all, nil
}

func (s *stubGraduates) RecordBelowThreshold(id string, score float64) error {
	if s.belowThreshold == nil {
		s.belowThreshold = make(map[string]float64)
	}
	s.belowThreshold[id] = score
	return nil
}

type stubJobs struct {
	byID map[string]*store.Job
	all  []*store.Job
}

func (s *stubJobs) Get(id string) (*store.Job, error) {
	j, ok := s.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return j, nil
}

func (s *stubJobs) ListActiveWithEmbeddings(limit int) ([]*store.Job, error) {
	if len(s.all) > limit {
		return s.all[:limit], nil
	}
	return s.all, nil
}

type upsertCall struct {
	graduateID string
	jobID      string
	score      float64
}

type stubMatches struct {
	calls []upsertCall
}

func (s *stubMatches) Upsert(graduateID, jobID string, score float64) error {
	s.calls = append(s.calls, upsertCall{graduateID, jobID, score})
	return nil
}

var errNotFound = errorString("not found")

type errorString string

func (e errorString) Error() string { return string(e) }

func testConfig() Config {
	return Config{MaxJobs: 10, MaxGraduates: 10, BatchSize: 2, MinScore: 0.4}
}

func newTestOrchestrator(t *testing.T, cfg Config, gw Gateway, graduates GraduateStore, jobs JobStore, matches MatchStore) *Orchestrator {
	t.Helper()

	tasks := queue.NewWithExecutor(queue.Immediate{}, zap.NewNop())

	o, err := New(cfg, gw, graduates, jobs, matches, tasks, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func activeJob(id string) *store.Job {
	return &store.Job{ID: id, Active: true, Embedding: []float64{0.1}}
}

func embeddedGraduate(id string) *store.Graduate {
	return &store.Graduate{ID: id, Embedding: []float64{0.2}}
}

func TestGraduateMatchingWritesScaledScores(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{matches: []aiservice.MatchItem{
		{ID: "job-1", Score: 0.9},
		{ID: "job-2", Score: 0.5},
	}}
	graduates := &stubGraduates{byID: map[string]*store.Graduate{"grad-1": embeddedGraduate("grad-1")}}
	jobs := &stubJobs{all: []*store.Job{activeJob("job-1"), activeJob("job-2")}}
	matches := &stubMatches{}

	o := newTestOrchestrator(t, testConfig(), gw, graduates, jobs, matches)
	o.QueueGraduateMatching("grad-1")

	if len(matches.calls) != 2 {
		t.Fatalf("expected 2 match writes, got %d", len(matches.calls))
	}
	if matches.calls[0].score != 90 || matches.calls[1].score != 50 {
		t.Fatalf("scores must be persisted on the 0-100 scale: %+v", matches.calls)
	}
	if len(graduates.belowThreshold) != 0 {
		t.Fatal("qualified graduate must not be flagged for retake")
	}
}

func TestGraduateBelowThresholdGetsNoMatches(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{matches: []aiservice.MatchItem{
		{ID: "job-1", Score: 0.35},
		{ID: "job-2", Score: 0.2},
	}}
	graduates := &stubGraduates{byID: map[string]*store.Graduate{"grad-1": embeddedGraduate("grad-1")}}
	jobs := &stubJobs{all: []*store.Job{activeJob("job-1"), activeJob("job-2")}}
	matches := &stubMatches{}

	o := newTestOrchestrator(t, testConfig(), gw, graduates, jobs, matches)
	o.QueueGraduateMatching("grad-1")

	if len(matches.calls) != 0 {
		t.Fatalf("below-threshold run must write no matches, got %+v", matches.calls)
	}
	if got := graduates.belowThreshold["grad-1"]; got != 0.35 {
		t.Fatalf("best score must be recorded, got %v", got)
	}
}

func TestGraduateWithNoUsableMatchesFlaggedForRetake(t *testing.T) {
	t.Parallel()

	// Every returned item is invalid, so the post-filter list is empty and the
	// best score is zero: the graduate must be flagged, not left in limbo.
	gw := &stubGateway{matches: []aiservice.MatchItem{
		{ID: "", Score: 0.9},
		{ID: "job-1", Score: -0.5},
	}}
	graduates := &stubGraduates{byID: map[string]*store.Graduate{"grad-1": embeddedGraduate("grad-1")}}
	jobs := &stubJobs{all: []*store.Job{activeJob("job-1")}}
	matches := &stubMatches{}

	o := newTestOrchestrator(t, testConfig(), gw, graduates, jobs, matches)
	o.QueueGraduateMatching("grad-1")

	if len(matches.calls) != 0 {
		t.Fatalf("expected no writes, got %+v", matches.calls)
	}
	if got, ok := graduates.belowThreshold["grad-1"]; !ok || got != 0 {
		t.Fatalf("expected below-threshold record with score 0, got %v ok=%t", got, ok)
	}
}

func TestGraduateWithEmptyScorerResponseFlaggedForRetake(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	graduates := &stubGraduates{byID: map[string]*store.Graduate{"grad-1": embeddedGraduate("grad-1")}}
	jobs := &stubJobs{all: []*store.Job{activeJob("job-1")}}
	matches := &stubMatches{}

	o := newTestOrchestrator(t, testConfig(), gw, graduates, jobs, matches)
	o.QueueGraduateMatching("grad-1")

	if len(matches.calls) != 0 {
		t.Fatalf("expected no writes, got %+v", matches.calls)
	}
	if got, ok := graduates.belowThreshold["grad-1"]; !ok || got != 0 {
		t.Fatalf("expected below-threshold record with score 0, got %v ok=%t", got, ok)
	}
}

func TestMatchingLogsCarryEntityFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)

	gw := &stubGateway{matches: []aiservice.MatchItem{{ID: "job-1", Score: 0.2}}}
	graduates := &stubGraduates{byID: map[string]*store.Graduate{"grad-1": embeddedGraduate("grad-1")}}
	jobs := &stubJobs{all: []*store.Job{activeJob("job-1")}}
	matches := &stubMatches{}

	tasks := queue.NewWithExecutor(queue.Immediate{}, zap.NewNop())
	o, err := New(testConfig(), gw, graduates, jobs, matches, tasks, zap.New(core))
	if err != nil {
		t.Fatal(err)
	}

	o.QueueGraduateMatching("grad-1")

	entries := logs.FilterMessage("graduate below matching threshold").All()
	if len(entries) != 1 {
		t.Fatalf("expected one threshold log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["graduate_id"]; got != "grad-1" {
		t.Fatalf("expected graduate_id field, got %v", got)
	}
}

func TestGraduateMatchingSkipsMissingOrUnembedded(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{matches: []aiservice.MatchItem{{ID: "job-1", Score: 0.9}}}
	graduates := &stubGraduates{byID: map[string]*store.Graduate{
		"bare": {ID: "bare"},
	}}
	jobs := &stubJobs{all: []*store.Job{activeJob("job-1")}}
	matches := &stubMatches{}

	o := newTestOrchestrator(t, testConfig(), gw, graduates, jobs, matches)
	o.QueueGraduateMatching("missing")
	o.QueueGraduateMatching("bare")

	if len(matches.calls) != 0 {
		t.Fatalf("expected silent skips, got %+v", matches.calls)
	}
	if len(graduates.belowThreshold) != 0 {
		t.Fatal("skips must not flag retakes")
	}
}

func TestGraduateMatchingFiltersBadItems(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{matches: []aiservice.MatchItem{
		{ID: "job-1", Score: 0.6},
		{ID: "job-1", Score: 0.8},
		{ID: "", Score: 0.9},
		{ID: "job-2", Score: 1.7},
	}}
	graduates := &stubGraduates{byID: map[string]*store.Graduate{"grad-1": embeddedGraduate("grad-1")}}
	jobs := &stubJobs{all: []*store.Job{activeJob("job-1"), activeJob("job-2")}}
	matches := &stubMatches{}

	o := newTestOrchestrator(t, testConfig(), gw, graduates, jobs, matches)
	o.QueueGraduateMatching("grad-1")

	if len(matches.calls) != 1 {
		t.Fatalf("expected one surviving match, got %+v", matches.calls)
	}
	if matches.calls[0].jobID != "job-1" || matches.calls[0].score != 80 {
		t.Fatalf("dedupe should keep the best duplicate: %+v", matches.calls[0])
	}
}

func TestJobMatchingChunksBatchesAndFiltersServerSide(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{batchResults: []aiservice.BatchMatchResult{
		{GraduateID: "grad-1", Matches: []aiservice.MatchItem{{ID: "job-1", Score: 0.7}}},
	}}
	graduates := &stubGraduates{all: []*store.Graduate{
		embeddedGraduate("grad-1"),
		embeddedGraduate("grad-2"),
		embeddedGraduate("grad-3"),
	}}
	jobs := &stubJobs{byID: map[string]*store.Job{"job-1": activeJob("job-1")}}
	matches := &stubMatches{}

	o := newTestOrchestrator(t, testConfig(), gw, graduates, jobs, matches)
	o.QueueJobMatching("job-1")

	if gw.batchCalls != 2 {
		t.Fatalf("3 graduates at batch size 2 means 2 calls, got %d", gw.batchCalls)
	}
	if gw.batchSizes[0] != 2 || gw.batchSizes[1] != 1 {
		t.Fatalf("unexpected chunk sizes: %v", gw.batchSizes)
	}
	if gw.lastBatchOpts == nil || gw.lastBatchOpts.MinScore == nil || *gw.lastBatchOpts.MinScore != 0.4 {
		t.Fatalf("min score must be pushed to the service: %+v", gw.lastBatchOpts)
	}

	// The stub returns the same result per chunk, so two writes land.
	if len(matches.calls) != 2 {
		t.Fatalf("expected 2 writes, got %+v", matches.calls)
	}
	for _, call := range matches.calls {
		if call.graduateID != "grad-1" || call.jobID != "job-1" || call.score != 70 {
			t.Fatalf("unexpected write: %+v", call)
		}
	}
}

func TestJobMatchingSkipsInactiveJobs(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	graduates := &stubGraduates{all: []*store.Graduate{embeddedGraduate("grad-1")}}
	jobs := &stubJobs{byID: map[string]*store.Job{
		"inactive": {ID: "inactive", Active: false, Embedding: []float64{0.1}},
		"bare":     {ID: "bare", Active: true},
	}}
	matches := &stubMatches{}

	o := newTestOrchestrator(t, testConfig(), gw, graduates, jobs, matches)
	o.QueueJobMatching("inactive")
	o.QueueJobMatching("bare")
	o.QueueJobMatching("missing")

	if gw.batchCalls != 0 {
		t.Fatalf("ineligible jobs must not reach the scorer, calls=%d", gw.batchCalls)
	}
	if len(matches.calls) != 0 {
		t.Fatalf("expected no writes, got %+v", matches.calls)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	if err := testConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := []Config{
		{MaxJobs: 0, MaxGraduates: 1, BatchSize: 1, MinScore: 0.5},
		{MaxJobs: 1, MaxGraduates: 0, BatchSize: 1, MinScore: 0.5},
		{MaxJobs: 1, MaxGraduates: 1, BatchSize: 0, MinScore: 0.5},
		{MaxJobs: 1, MaxGraduates: 1, BatchSize: 1, MinScore: -0.1},
		{MaxJobs: 1, MaxGraduates: 1, BatchSize: 1, MinScore: 1.1},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("config %d should be rejected", i)
		}
	}
}

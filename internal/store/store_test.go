package store

import (
	"database/sql"
	"testing"
	"time"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestGraduateRoundTrip(t *testing.T) {
	db := testDB(t)
	graduates := NewGraduates(db)

	grad := &Graduate{
		ID:        "grad-1",
		Skills:    []string{"go", "sql"},
		Education: "bachelor",
		WorkHistory: []WorkExperience{
			{Title: "intern", Company: "acme", StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
		Embedding: []float64{0.1, 0.2},
	}

	if err := graduates.Put(grad); err != nil {
		t.Fatal(err)
	}

	got, err := graduates.Get("grad-1")
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Skills) != 2 || got.Skills[1] != "sql" {
		t.Fatalf("skills not preserved: %v", got.Skills)
	}
	if len(got.WorkHistory) != 1 || got.WorkHistory[0].Company != "acme" {
		t.Fatalf("work history not preserved: %+v", got.WorkHistory)
	}
	if len(got.Embedding) != 2 {
		t.Fatalf("embedding not preserved: %v", got.Embedding)
	}
	if got.Assessment.QuestionSetVersion != 1 {
		t.Fatalf("question set version should start at 1, got %d", got.Assessment.QuestionSetVersion)
	}

	if _, err := graduates.Get("missing"); err == nil {
		t.Fatal("expected error for unknown graduate")
	}
}

func TestRecordBelowThreshold(t *testing.T) {
	db := testDB(t)
	graduates := NewGraduates(db)

	if err := graduates.Put(&Graduate{ID: "grad-1", Embedding: []float64{0.3}}); err != nil {
		t.Fatal(err)
	}

	if err := graduates.RecordBelowThreshold("grad-1", 0.25); err != nil {
		t.Fatal(err)
	}
	if err := graduates.RecordBelowThreshold("grad-1", 0.31); err != nil {
		t.Fatal(err)
	}

	got, err := graduates.Get("grad-1")
	if err != nil {
		t.Fatal(err)
	}

	if !got.Assessment.NeedsRetake {
		t.Fatal("needs_retake must be set")
	}
	if got.Assessment.LastScore != 0.31 {
		t.Fatalf("last score not updated: %v", got.Assessment.LastScore)
	}
	if got.Assessment.QuestionSetVersion != 3 {
		t.Fatalf("version should advance per outcome, got %d", got.Assessment.QuestionSetVersion)
	}

	if err := graduates.RecordBelowThreshold("missing", 0.1); err == nil {
		t.Fatal("expected error for unknown graduate")
	}
}

func TestListWithEmbeddingsSkipsUnembedded(t *testing.T) {
	db := testDB(t)
	graduates := NewGraduates(db)

	if err := graduates.Put(&Graduate{ID: "embedded", Embedding: []float64{0.1}}); err != nil {
		t.Fatal(err)
	}
	if err := graduates.Put(&Graduate{ID: "bare"}); err != nil {
		t.Fatal(err)
	}

	got, err := graduates.ListWithEmbeddings(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "embedded" {
		t.Fatalf("unexpected listing: %+v", got)
	}
}

func TestJobsListActiveWithEmbeddings(t *testing.T) {
	db := testDB(t)
	jobs := NewJobs(db)

	for _, j := range []*Job{
		{ID: "active-embedded", Active: true, Embedding: []float64{0.1}},
		{ID: "inactive-embedded", Active: false, Embedding: []float64{0.1}},
		{ID: "active-bare", Active: true},
	} {
		if err := jobs.Put(j); err != nil {
			t.Fatal(err)
		}
	}

	got, err := jobs.ListActiveWithEmbeddings(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "active-embedded" {
		t.Fatalf("unexpected listing: %+v", got)
	}
}

func TestJobSetEmbedding(t *testing.T) {
	db := testDB(t)
	jobs := NewJobs(db)

	if err := jobs.Put(&Job{ID: "job-1", Title: "backend engineer", Active: true}); err != nil {
		t.Fatal(err)
	}

	if err := jobs.SetEmbedding("job-1", []float64{0.7, 0.8}); err != nil {
		t.Fatal(err)
	}

	got, err := jobs.Get("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Embedding) != 2 || got.Embedding[0] != 0.7 {
		t.Fatalf("embedding not stored: %v", got.Embedding)
	}

	if err := jobs.SetEmbedding("missing", []float64{0.1}); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestMatchUpsertPreservesHumanDecision(t *testing.T) {
	db := testDB(t)
	matches := NewMatches(db)

	if err := matches.Upsert("grad-1", "job-1", 70); err != nil {
		t.Fatal(err)
	}

	got, err := matches.Get("grad-1", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != MatchStatusPending || got.Score != 70 {
		t.Fatalf("unexpected initial match: %+v", got)
	}

	if err := matches.SetStatus("grad-1", "job-1", MatchStatusAccepted); err != nil {
		t.Fatal(err)
	}

	// Re-matching updates the score but never resets an accepted status.
	if err := matches.Upsert("grad-1", "job-1", 85); err != nil {
		t.Fatal(err)
	}

	got, err = matches.Get("grad-1", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Score != 85 {
		t.Fatalf("score not updated: %v", got.Score)
	}
	if got.Status != MatchStatusAccepted {
		t.Fatalf("status reset by re-match: %s", got.Status)
	}
}

func TestSetStatusValidation(t *testing.T) {
	db := testDB(t)
	matches := NewMatches(db)

	if err := matches.Upsert("grad-1", "job-1", 50); err != nil {
		t.Fatal(err)
	}

	if err := matches.SetStatus("grad-1", "job-1", "bogus"); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
	if err := matches.SetStatus("grad-1", "missing", MatchStatusRejected); err == nil {
		t.Fatal("expected error for unknown match")
	}
}

func TestListForGraduateOrdersByScore(t *testing.T) {
	db := testDB(t)
	matches := NewMatches(db)

	for job, score := range map[string]float64{"low": 40, "high": 90, "mid": 60} {
		if err := matches.Upsert("grad-1", job, score); err != nil {
			t.Fatal(err)
		}
	}

	got, err := matches.ListForGraduate("grad-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].JobID != "high" || got[2].JobID != "low" {
		t.Fatalf("unexpected ordering: %+v", got)
	}

	count, err := matches.CountForGraduate("grad-1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("unexpected count: %d", count)
	}
}

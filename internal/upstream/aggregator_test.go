package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// recordProvider simulates the six upstream endpoints with per-endpoint
// failure switches.
type recordProvider struct {
	mu     sync.Mutex
	failed map[string]bool
}

func (p *recordProvider) fail(categories ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed == nil {
		p.failed = make(map[string]bool)
	}
	for _, c := range categories {
		p.failed[c] = true
	}
}

func (p *recordProvider) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category := categoryOf(r.URL.Path)
		p.mu.Lock()
		down := p.failed[category]
		p.mu.Unlock()
		if down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch category {
		case "profile":
			fmt.Fprint(w, `{"id": "42", "firstname": "Jane", "lastname": "Doe"}`)
		case "attendance":
			fmt.Fprint(w, `{"present": 18, "absent": 2}`)
		case "scores":
			fmt.Fprint(w, `[{"subject": "Math", "marks": 91}]`)
		case "enrollment":
			fmt.Fprint(w, `[{"student_id": "42", "class": "10A"}, {"student_id": "17", "class": "9B"}]`)
		case "assignments":
			fmt.Fprint(w, `[{"title": "Essay", "due": "2026-09-10"}]`)
		case "examlist":
			fmt.Fprint(w, `[{"id": 7, "name": "Midterm"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func categoryOf(path string) string {
	switch {
	case strings.Contains(path, "attendance"):
		return "attendance"
	case strings.Contains(path, "ExamData"):
		return "scores"
	case strings.Contains(path, "enrollment"):
		return "enrollment"
	case strings.Contains(path, "assignments"):
		return "assignments"
	case strings.Contains(path, "ExamList"):
		return "examlist"
	case strings.Contains(path, "students"):
		return "profile"
	}
	return ""
}

func newTestAggregator(t *testing.T, p *recordProvider) (*Aggregator, func()) {
	t.Helper()
	srv := httptest.NewServer(p.handler())
	gw := NewGateway(srv.URL, "", 5*time.Second, zap.NewNop())
	return NewAggregator(gw, zap.NewNop()), srv.Close
}

func TestAggregateAllUp(t *testing.T) {
	agg, done := newTestAggregator(t, &recordProvider{})
	defer done()

	record := agg.Aggregate(context.Background(), "42", "Jane Doe")
	if record.StudentID != "42" || record.Name != "Jane Doe" {
		t.Fatalf("identity fields wrong: %+v", record)
	}
	for _, c := range record.Categories() {
		if c.Data == nil {
			t.Errorf("category %s should be populated", c.Label)
		}
	}
	// Enrollment must be filtered to the student's rows.
	rows, ok := record.Enrollment.([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("enrollment not filtered: %+v", record.Enrollment)
	}
	if stringField(rows[0], "class") != "10A" {
		t.Errorf("wrong enrollment row: %+v", rows[0])
	}
}

// For every single failing category, the aggregate still returns a record with
// exactly that category empty and the others populated.
func TestAggregatePartialFailure(t *testing.T) {
	categories := []string{"profile", "attendance", "scores", "enrollment", "assignments", "examlist"}
	for _, failing := range categories {
		t.Run(failing, func(t *testing.T) {
			p := &recordProvider{}
			p.fail(failing)
			agg, done := newTestAggregator(t, p)
			defer done()

			record := agg.Aggregate(context.Background(), "42", "Jane Doe")
			got := map[string]any{
				"profile":     record.Profile,
				"attendance":  record.Attendance,
				"scores":      record.Scores,
				"enrollment":  record.Enrollment,
				"assignments": record.Assignments,
				"examlist":    record.ExamList,
			}
			for name, data := range got {
				if name == failing && data != nil {
					t.Errorf("failing category %s should be nil, got %+v", name, data)
				}
				if name != failing && data == nil {
					t.Errorf("category %s should be populated", name)
				}
			}
		})
	}
}

func TestAggregateTotalFailure(t *testing.T) {
	p := &recordProvider{}
	p.fail("profile", "attendance", "scores", "enrollment", "assignments", "examlist")
	agg, done := newTestAggregator(t, p)
	defer done()

	record := agg.Aggregate(context.Background(), "42", "Jane Doe")
	if record == nil {
		t.Fatal("aggregation must never fail")
	}
	for _, c := range record.Categories() {
		if c.Data != nil {
			t.Errorf("category %s should be empty, got %+v", c.Label, c.Data)
		}
	}
}

func TestAggregateProfileCollection(t *testing.T) {
	// Profile endpoint answering with a collection must be reconciled to one document.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if categoryOf(r.URL.Path) == "profile" {
			fmt.Fprint(w, `[{"id": "41", "firstname": "John", "lastname": "Smith"},
				{"id": "42", "firstname": "Jane", "lastname": "Doe"}]`)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, "", 5*time.Second, zap.NewNop())
	agg := NewAggregator(gw, zap.NewNop())
	record := agg.Aggregate(context.Background(), "42", "Jane Doe")

	doc, ok := record.Profile.(map[string]any)
	if !ok {
		t.Fatalf("profile not reconciled: %+v", record.Profile)
	}
	if doc["firstname"] != "Jane" {
		t.Errorf("wrong profile matched: %+v", doc)
	}
}

func TestAggregateScoresRetryWithExamID(t *testing.T) {
	var examDataPaths []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch categoryOf(r.URL.Path) {
		case "scores":
			mu.Lock()
			examDataPaths = append(examDataPaths, r.URL.Path)
			mu.Unlock()
			if strings.Contains(r.URL.Path, "/7/") {
				fmt.Fprint(w, `[{"subject": "Math", "marks": 91}]`)
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case "examlist":
			fmt.Fprint(w, `[{"id": 7, "name": "Midterm"}]`)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, "", 5*time.Second, zap.NewNop())
	agg := NewAggregator(gw, zap.NewNop())
	record := agg.Aggregate(context.Background(), "42", "Jane Doe")

	if record.Scores == nil {
		t.Fatal("scores should be recovered via exam id retry")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(examDataPaths) != 2 {
		t.Errorf("expected direct fetch plus one retry, got %v", examDataPaths)
	}
}

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/gigfinder/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stores returns a fresh instance of every JobStore implementation.
func stores(t *testing.T) map[string]model.JobStore {
	t.Helper()
	return map[string]model.JobStore{
		"sqlite": newTestStore(t),
		"memory": NewMemoryStore(),
	}
}

func testJob(platform model.Platform, id, title, desc string) model.Job {
	return model.Job{
		Platform:    platform,
		ExternalID:  id,
		Title:       title,
		URL:         "https://example.com/" + id,
		Budget:      model.BudgetNA,
		Description: desc,
		PostedAt:    "2026-01-15T10:00:00Z",
	}
}

func TestInsertThenExists(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := testJob(model.PlatformFreelancer, "job-123", "Logo design", "")

			added, err := s.Insert(ctx, job)
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if !added {
				t.Fatal("expected first Insert to report a new job")
			}

			exists, err := s.Exists(ctx, model.PlatformFreelancer, "job-123")
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if !exists {
				t.Error("expected Exists to return true after Insert")
			}

			// Same external id on another platform is a different key.
			exists, err = s.Exists(ctx, model.PlatformRemoteOK, "job-123")
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if exists {
				t.Error("expected Exists to be scoped by platform")
			}
		})
	}
}

func TestInsertIdempotent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := testJob(model.PlatformRemoteOK, "456", "Go developer", "")

			if added, err := s.Insert(ctx, job); err != nil || !added {
				t.Fatalf("first Insert = %v, %v; want true, nil", added, err)
			}

			job.Title = "Go developer (edited)"
			added, err := s.Insert(ctx, job)
			if err != nil {
				t.Fatalf("second Insert (duplicate): %v", err)
			}
			if added {
				t.Error("expected duplicate Insert to return false")
			}

			count, err := s.Count(ctx, model.ListOptions{})
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if count != 1 {
				t.Errorf("count = %d, want 1", count)
			}

			jobs, err := s.List(ctx, model.ListOptions{})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if jobs[0].Title != "Go developer" {
				t.Errorf("stored title = %q, duplicate must not overwrite", jobs[0].Title)
			}
		})
	}
}

func TestInsertConcurrentSameKey(t *testing.T) {
	const n = 16
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := testJob(model.PlatformWeWorkRemotely, "same-key", "Support engineer", "")

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				trues   int
				errs    []error
				release = make(chan struct{})
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-release
					added, err := s.Insert(ctx, job)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						errs = append(errs, err)
					}
					if added {
						trues++
					}
				}()
			}
			close(release)
			wg.Wait()

			if len(errs) > 0 {
				t.Fatalf("Insert errors: %v", errs)
			}
			if trues != 1 {
				t.Errorf("true results = %d, want exactly 1", trues)
			}
			count, err := s.Count(ctx, model.ListOptions{})
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if count != 1 {
				t.Errorf("stored = %d, want 1", count)
			}
		})
	}
}

func TestListNewestFirstWithFrozenClock(t *testing.T) {
	frozen := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	sq := newTestStore(t)
	sq.now = frozen
	mem := NewMemoryStore()
	mem.now = frozen

	for name, s := range map[string]model.JobStore{"sqlite": sq, "memory": mem} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"a", "b", "c"} {
				if _, err := s.Insert(ctx, testJob(model.PlatformFreelancer, id, "Job "+id, "")); err != nil {
					t.Fatalf("Insert %s: %v", id, err)
				}
			}

			jobs, err := s.List(ctx, model.ListOptions{})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(jobs) != 3 {
				t.Fatalf("len = %d, want 3", len(jobs))
			}
			for i, want := range []string{"c", "b", "a"} {
				if jobs[i].ExternalID != want {
					t.Errorf("jobs[%d] = %s, want %s", i, jobs[i].ExternalID, want)
				}
			}
			if !jobs[0].CreatedAt.After(jobs[1].CreatedAt) || !jobs[1].CreatedAt.After(jobs[2].CreatedAt) {
				t.Errorf("created_at not strictly increasing with insertion: %v", []time.Time{
					jobs[2].CreatedAt, jobs[1].CreatedAt, jobs[0].CreatedAt,
				})
			}
		})
	}
}

func TestListPagination(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 120; i++ {
				id := fmt.Sprintf("job-%03d", i)
				if _, err := s.Insert(ctx, testJob(model.PlatformFreelancer, id, id, "")); err != nil {
					t.Fatalf("Insert %s: %v", id, err)
				}
			}

			jobs, err := s.List(ctx, model.ListOptions{Offset: 100, Limit: 50})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(jobs) != 20 {
				t.Fatalf("len = %d, want 20", len(jobs))
			}
			if jobs[0].ExternalID != "job-019" || jobs[19].ExternalID != "job-000" {
				t.Errorf("window = %s..%s, want job-019..job-000", jobs[0].ExternalID, jobs[19].ExternalID)
			}

			jobs, err = s.List(ctx, model.ListOptions{Offset: 500, Limit: 50})
			if err != nil {
				t.Fatalf("List beyond end: %v", err)
			}
			if len(jobs) != 0 {
				t.Errorf("len beyond end = %d, want 0", len(jobs))
			}
		})
	}
}

func TestListTokenAndPlatformFilter(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed := []model.Job{
				testJob(model.PlatformFreelancer, "1", "Painter Needed", "Interior walls"),
				testJob(model.PlatformRemoteOK, "2", "Backend Engineer", "Golang services"),
				testJob(model.PlatformFreelancer, "3", "Logo design", "Vector logo for a GOLANG meetup"),
				testJob(model.PlatformWeWorkRemotely, "4", "Support agent", "Zendesk"),
			}
			for _, j := range seed {
				if _, err := s.Insert(ctx, j); err != nil {
					t.Fatalf("Insert: %v", err)
				}
			}

			tests := []struct {
				name string
				opts model.ListOptions
				want []string
			}{
				{name: "no filter", opts: model.ListOptions{}, want: []string{"4", "3", "2", "1"}},
				{name: "title substring", opts: model.ListOptions{Tokens: []string{"paint"}}, want: []string{"1"}},
				{name: "description case-insensitive", opts: model.ListOptions{Tokens: []string{"golang"}}, want: []string{"3", "2"}},
				{name: "tokens are OR-ed", opts: model.ListOptions{Tokens: []string{"zendesk", "paint"}}, want: []string{"4", "1"}},
				{name: "platform only", opts: model.ListOptions{Platform: model.PlatformFreelancer}, want: []string{"3", "1"}},
				{name: "tokens and platform", opts: model.ListOptions{Tokens: []string{"golang"}, Platform: model.PlatformRemoteOK}, want: []string{"2"}},
				{name: "wildcard characters are literal", opts: model.ListOptions{Tokens: []string{"%"}}, want: nil},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					jobs, err := s.List(ctx, tt.opts)
					if err != nil {
						t.Fatalf("List: %v", err)
					}
					var got []string
					for _, j := range jobs {
						got = append(got, j.ExternalID)
					}
					if fmt.Sprint(got) != fmt.Sprint(tt.want) {
						t.Errorf("ids = %v, want %v", got, tt.want)
					}

					count, err := s.Count(ctx, tt.opts)
					if err != nil {
						t.Fatalf("Count: %v", err)
					}
					if count != len(tt.want) {
						t.Errorf("Count = %d, want %d", count, len(tt.want))
					}
				})
			}
		})
	}
}

func TestListFoldsNonASCIICase(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, j := range []model.Job{
				testJob(model.PlatformFreelancer, "1", "ÉCOLE Tutor", ""),
				testJob(model.PlatformRemoteOK, "2", "Writer", "Über-fast ÜBERSETZUNG work"),
				testJob(model.PlatformRemoteOK, "3", "Plain job", "nothing here"),
			} {
				if _, err := s.Insert(ctx, j); err != nil {
					t.Fatalf("Insert: %v", err)
				}
			}

			tests := []struct {
				token string
				want  int
			}{
				{"école", 1},
				{"übersetzung", 1},
				{"über", 1},
				{"tutor", 1},
			}
			for _, tt := range tests {
				n, err := s.Count(ctx, model.ListOptions{Tokens: []string{tt.token}})
				if err != nil {
					t.Fatalf("Count: %v", err)
				}
				if n != tt.want {
					t.Errorf("Count(%q) = %d, want %d", tt.token, n, tt.want)
				}
			}
		})
	}
}

func TestPageAgreesWithListAndCount(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 7; i++ {
				desc := "golang"
				if i%2 == 1 {
					desc = "rust"
				}
				if _, err := s.Insert(ctx, testJob(model.PlatformRemoteOK, fmt.Sprint(i), "Engineer", desc)); err != nil {
					t.Fatalf("Insert: %v", err)
				}
			}

			opts := model.ListOptions{Tokens: []string{"golang"}, Offset: 1, Limit: 2}
			jobs, total, err := s.Page(ctx, opts)
			if err != nil {
				t.Fatalf("Page: %v", err)
			}
			if total != 4 {
				t.Errorf("total = %d, want 4", total)
			}
			var got []string
			for _, j := range jobs {
				got = append(got, j.ExternalID)
			}
			if fmt.Sprint(got) != "[4 2]" {
				t.Errorf("ids = %v, want [4 2]", got)
			}

			jobs, total, err = s.Page(ctx, model.ListOptions{Tokens: []string{"golang"}, Offset: 10, Limit: 2})
			if err != nil {
				t.Fatalf("Page past end: %v", err)
			}
			if total != 4 || len(jobs) != 0 {
				t.Errorf("past end: total = %d, jobs = %d; want 4, 0", total, len(jobs))
			}
		})
	}
}

func TestReopenKeepsDataAndClock(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "jobs.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	// Pretend the first run happened with a clock far in the future.
	s.now = func() time.Time { return time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC) }
	if _, err := s.Insert(ctx, testJob(model.PlatformFreelancer, "old", "Old", "")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	added, err := s.Insert(ctx, testJob(model.PlatformFreelancer, "old", "Old", ""))
	if err != nil || added {
		t.Fatalf("Insert duplicate after reopen = %v, %v; want false, nil", added, err)
	}
	if _, err := s.Insert(ctx, testJob(model.PlatformFreelancer, "new", "New", "")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	jobs, err := s.List(ctx, model.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ExternalID != "new" {
		t.Fatalf("expected the later insert first, got %+v", jobs)
	}
}

func TestSchemaIndexes(t *testing.T) {
	s := newTestStore(t)

	for _, idx := range []string{"idx_jobs_created_at", "idx_jobs_platform", "idx_jobs_title"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?`, idx).Scan(&name)
		if err != nil {
			t.Errorf("index %s missing: %v", idx, err)
		}
	}
}

func TestNextCreatedAt(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := nextCreatedAt(base.Add(time.Second), base); !got.Equal(base.Add(time.Second)) {
		t.Errorf("advancing clock: got %v", got)
	}
	if got := nextCreatedAt(base, base); !got.Equal(base.Add(time.Nanosecond)) {
		t.Errorf("equal clock: got %v, want last+1ns", got)
	}
	if got := nextCreatedAt(base.Add(-time.Hour), base); !got.Equal(base.Add(time.Nanosecond)) {
		t.Errorf("clock moved backwards: got %v, want last+1ns", got)
	}
}

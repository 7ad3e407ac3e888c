package adapter

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/amishk599/gigfinder/internal/model"
)

func newRemoteOKTestAdapter(srv string) *RemoteOKAdapter {
	a := NewRemoteOKAdapter(http.DefaultClient, Options{BaseURL: srv}, discardLogger())
	a.now = func() time.Time { return fixedNow }
	return a
}

func TestRemoteOKAdapter_Search_Success(t *testing.T) {
	payload := `[
		{"last_updated": 1740830400, "legal": "API Terms of Service: ..."},
		{
			"id": "1092345",
			"slug": "remote-senior-go-engineer-acme-1092345",
			"position": "Senior Go Engineer",
			"company": "Acme",
			"url": "https://remoteok.com/remote-jobs/remote-senior-go-engineer-acme-1092345",
			"tags": ["golang", "backend"],
			"description": "<p>Build &amp; run services.</p><ul><li>Go</li><li>SQL</li></ul>",
			"location": "Worldwide",
			"salary_min": 90000,
			"salary_max": 130000,
			"date": "2025-02-27T09:30:00+00:00"
		},
		{"id": 77, "position": "No slug here", "company": "Ghost"},
		{
			"id": 1092346,
			"slug": "remote-designer-beta-1092346",
			"position": "Designer",
			"company": "Beta",
			"url": "https://remoteok.com/remote-jobs/remote-designer-beta-1092346",
			"tags": ["design", "$60k+"],
			"description": "Design things",
			"location": "Europe"
		},
		{
			"id": "1092347",
			"slug": "remote-writer-gamma-1092347",
			"position": "Writer",
			"company": "Gamma",
			"url": "https://remoteok.com/remote-jobs/remote-writer-gamma-1092347",
			"tags": ["writing"],
			"description": "Write things",
			"location": "Anywhere"
		}
	]`
	var uri string
	srv := serve(t, http.StatusOK, "application/json", payload, &uri)

	jobs, err := newRemoteOKTestAdapter(srv.URL).Search(context.Background(), "Golang Developer", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uri != "/api?tag=golang-developer" {
		t.Errorf("unexpected request uri %q", uri)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Platform != model.PlatformRemoteOK {
		t.Errorf("expected platform RemoteOK, got %s", j.Platform)
	}
	if j.ExternalID != "1092345" {
		t.Errorf("expected external id 1092345, got %s", j.ExternalID)
	}
	if j.Title != "Senior Go Engineer at Acme" {
		t.Errorf("unexpected title %q", j.Title)
	}
	if j.Budget != "$90,000 - $130,000" {
		t.Errorf("unexpected budget %q", j.Budget)
	}
	if j.Description != "Build & run services. Go SQL" {
		t.Errorf("unexpected description %q", j.Description)
	}
	if j.PostedAt != "2025-02-27T09:30:00+00:00" {
		t.Errorf("unexpected posted_at %q", j.PostedAt)
	}

	if jobs[1].ExternalID != "1092346" {
		t.Errorf("expected numeric id to be kept as string, got %q", jobs[1].ExternalID)
	}
	if jobs[1].Budget != "$60k" {
		t.Errorf("expected budget from tags, got %q", jobs[1].Budget)
	}
	if jobs[1].PostedAt != "2025-03-01T12:00:00Z" {
		t.Errorf("expected fallback posted_at, got %q", jobs[1].PostedAt)
	}
	if jobs[2].Budget != model.BudgetNA {
		t.Errorf("expected N/A budget, got %q", jobs[2].Budget)
	}
}

func TestRemoteOKAdapter_Search_ExplicitSalaryWins(t *testing.T) {
	payload := `[{"id": 1, "slug": "a", "position": "A", "company": "B", "url": "https://remoteok.com/a",
		"salary": "$120k - $150k", "salary_min": 1, "salary_max": 2, "tags": ["$10k"]}]`
	srv := serve(t, http.StatusOK, "application/json", payload, nil)

	jobs, err := newRemoteOKTestAdapter(srv.URL).Search(context.Background(), "x", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Budget != "$120k - $150k" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
}

func TestRemoteOKAdapter_Search_SalaryFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{"unmatched salary text kept verbatim over location", `"salary": "90 $/hr", "location": "Worldwide"`, "90 $/hr"},
		{"unmatched salary text beats numeric range", `"salary": "80 €/hr", "salary_min": 60000, "salary_max": 90000`, "80 €/hr"},
		{"location used only when salary is empty", `"location": "US only, 100k USD"`, "100k USD"},
		{"short location reached after unmatched salary", `"salary": "Competitive", "location": "$5k/mo"`, "$5k/mo"},
		{"nothing usable", `"salary": "Competitive", "location": "Worldwide"`, model.BudgetNA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `[{"id": 1, "slug": "a", "position": "A", "url": "https://remoteok.com/a", ` + tt.extra + `}]`
			srv := serve(t, http.StatusOK, "application/json", payload, nil)

			jobs, err := newRemoteOKTestAdapter(srv.URL).Search(context.Background(), "x", 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(jobs) != 1 {
				t.Fatalf("expected 1 job, got %d", len(jobs))
			}
			if jobs[0].Budget != tt.want {
				t.Errorf("budget = %q, want %q", jobs[0].Budget, tt.want)
			}
		})
	}
}

func TestRemoteOKAdapter_Search_SkipsUndecodableItems(t *testing.T) {
	payload := `[
		{"id": "1", "slug": "one", "position": "One", "url": "https://remoteok.com/one"},
		{"id": "2", "slug": "two", "position": "Two", "tags": "not-a-list"},
		{"id": "3", "slug": "three", "position": "Three", "url": "https://remoteok.com/three"}
	]`
	srv := serve(t, http.StatusOK, "application/json", payload, nil)

	jobs, err := newRemoteOKTestAdapter(srv.URL).Search(context.Background(), "x", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Title != "One" || jobs[1].Title != "Three" {
		t.Errorf("unexpected titles %q, %q", jobs[0].Title, jobs[1].Title)
	}
}

func TestRemoteOKAdapter_Search_ChallengeInsteadOfJSON(t *testing.T) {
	page := `<html><head><title>Attention Required! | Cloudflare</title></head></html>`
	srv := serve(t, http.StatusOK, "text/html", page, nil)

	_, err := newRemoteOKTestAdapter(srv.URL).Search(context.Background(), "x", 1)
	if !errors.Is(err, model.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestRemoteOKAdapter_Search_ForbiddenChallenge(t *testing.T) {
	page := `<html><head><title>Just a moment...</title></head><body><div id="challenge-form"></div></body></html>`
	srv := serve(t, http.StatusForbidden, "text/html", page, nil)

	_, err := newRemoteOKTestAdapter(srv.URL).Search(context.Background(), "x", 1)
	if !errors.Is(err, model.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestRemoteOKAdapter_Search_InvalidJSON(t *testing.T) {
	srv := serve(t, http.StatusOK, "application/json", `{"error": "nope"}`, nil)

	_, err := newRemoteOKTestAdapter(srv.URL).Search(context.Background(), "x", 1)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, model.ErrBlocked) {
		t.Error("decode error should not be classified as blocked")
	}
}

func TestFormatSalaryRange(t *testing.T) {
	tests := []struct {
		min, max string
		want     string
	}{
		{"60000", "100000", "$60,000 - $100,000"},
		{"60000", "60000", "$60,000"},
		{"0", "85000", "$85,000"},
		{"", "", ""},
		{"abc", "0", ""},
	}
	for _, tt := range tests {
		if got := formatSalaryRange(tt.min, tt.max); got != tt.want {
			t.Errorf("formatSalaryRange(%q, %q) = %q, want %q", tt.min, tt.max, got, tt.want)
		}
	}
}

package model

import (
	"context"
	"time"
)

// Platform identifies the listing source a job was scraped from.
type Platform string

const (
	PlatformFreelancer     Platform = "Freelancer"
	PlatformRemoteOK       Platform = "RemoteOK"
	PlatformWeWorkRemotely Platform = "WeWorkRemotely"
	PlatformUpwork         Platform = "Upwork"
)

// BudgetNA is stored when no compensation could be extracted.
const BudgetNA = "N/A"

// Unified representation of a job posting from any source.
type Job struct {
	Platform    Platform  // origin source
	ExternalID  string    // stable per platform; (Platform, ExternalID) is the dedup key
	Title       string    // display title, never empty
	URL         string    // absolute link to the posting
	Budget      string    // extracted compensation or BudgetNA
	Description string    // truncated free text
	PostedAt    string    // source timestamp, or extraction time when absent
	CreatedAt   time.Time // set by the store on insert; zero until then
}

// Key returns the dedup key of the job.
func (j Job) Key() string {
	return string(j.Platform) + ":" + j.ExternalID
}

// JobSource searches one external listing source.
// page is 1-based and ignored by sources without pagination.
type JobSource interface {
	Platform() Platform
	Search(ctx context.Context, term string, page int) ([]Job, error)
}

// ListOptions selects a window of stored jobs.
type ListOptions struct {
	Tokens   []string // lowercase; a job matches if any token is in its title or description
	Platform Platform // empty means all platforms
	Offset   int
	Limit    int // zero means no limit
}

// JobStore owns the persisted job collection.
type JobStore interface {
	Exists(ctx context.Context, platform Platform, externalID string) (bool, error)
	// Insert stores job unless its key already exists. It reports whether
	// the job was newly stored; a duplicate is not an error.
	Insert(ctx context.Context, job Job) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]Job, error)
	Count(ctx context.Context, opts ListOptions) (int, error)
	// Page returns the List window together with the Count total, both read
	// from the same snapshot.
	Page(ctx context.Context, opts ListOptions) ([]Job, int, error)
	Close() error
}

// Notifier reports newly stored jobs.
type Notifier interface {
	Notify(jobs []Job) error
}

// JobFilter decides whether a job matches a search.
type JobFilter interface {
	Match(job Job) bool
}

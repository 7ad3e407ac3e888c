package store

import (
	"context"
	"sync"
	"time"

	"github.com/amishk599/gigfinder/internal/filter"
	"github.com/amishk599/gigfinder/internal/model"
)

var _ model.JobStore = (*MemoryStore)(nil)

// MemoryStore keeps jobs in process memory. It is used for dry-run scrapes
// where nothing should be persisted; it is created and closed explicitly
// like the SQLite store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs []model.Job // insertion order
	keys map[string]struct{}
	last time.Time
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]struct{}), now: time.Now}
}

func (s *MemoryStore) Exists(_ context.Context, platform model.Platform, externalID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[model.Job{Platform: platform, ExternalID: externalID}.Key()]
	return ok, nil
}

func (s *MemoryStore) Insert(_ context.Context, job model.Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := job.Key()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	job.CreatedAt = nextCreatedAt(s.now(), s.last)
	s.last = job.CreatedAt
	s.keys[key] = struct{}{}
	s.jobs = append(s.jobs, job)
	return true, nil
}

func (s *MemoryStore) List(_ context.Context, opts model.ListOptions) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.matching(jobFilter(opts)), opts), nil
}

func (s *MemoryStore) Count(_ context.Context, opts model.ListOptions) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(jobFilter(opts))), nil
}

// Page returns the window and the total under one read lock.
func (s *MemoryStore) Page(_ context.Context, opts model.ListOptions) ([]model.Job, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.matching(jobFilter(opts))
	return window(matched, opts), len(matched), nil
}

func (s *MemoryStore) Close() error { return nil }

func jobFilter(opts model.ListOptions) model.JobFilter {
	return filter.NewKeywordFilter(opts.Tokens, opts.Platform)
}

// matching returns jobs accepted by f, newest first. Caller holds mu.
func (s *MemoryStore) matching(f model.JobFilter) []model.Job {
	var out []model.Job
	for i := len(s.jobs) - 1; i >= 0; i-- {
		if f.Match(s.jobs[i]) {
			out = append(out, s.jobs[i])
		}
	}
	return out
}

func window(matched []model.Job, opts model.ListOptions) []model.Job {
	offset := max(opts.Offset, 0)
	if offset >= len(matched) {
		return nil
	}
	end := len(matched)
	if opts.Limit > 0 && offset+opts.Limit < end {
		end = offset + opts.Limit
	}
	out := make([]model.Job, end-offset)
	copy(out, matched[offset:end])
	return out
}

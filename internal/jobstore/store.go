// Package jobstore keeps the registry of sync job records.
package jobstore

import (
	"errors"
	"sort"
	"sync"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
)

var ErrJobNotFound = errors.New("sync job not found")

// Store is the registry of sync job records. Implementations must hand out
// copies so callers never observe a record mid-update.
type Store interface {
	Put(job models.SyncJob)
	Get(id string) (models.SyncJob, bool)
	ListByUser(userID string) []models.SyncJob
	List() []models.SyncJob
	Delete(id string) bool
	Update(id string, fn func(job *models.SyncJob) error) (models.SyncJob, error)
}

// MemoryStore keeps job records in process memory. History is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]models.SyncJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]models.SyncJob)}
}

// Put inserts or replaces a job record
func (s *MemoryStore) Put(job models.SyncJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a snapshot of the job record
func (s *MemoryStore) Get(id string) (models.SyncJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// ListByUser returns the user's job records, newest first
func (s *MemoryStore) ListByUser(userID string) []models.SyncJob {
	s.mu.RLock()
	jobs := make([]models.SyncJob, 0)
	for _, job := range s.jobs {
		if job.UserID == userID {
			jobs = append(jobs, job)
		}
	}
	s.mu.RUnlock()

	SortNewestFirst(jobs)
	return jobs
}

// List returns every job record, newest first
func (s *MemoryStore) List() []models.SyncJob {
	s.mu.RLock()
	jobs := make([]models.SyncJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.RUnlock()

	SortNewestFirst(jobs)
	return jobs
}

// Delete removes a job record and reports whether it existed
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

// Update applies fn to a copy of the record and stores the result only if fn
// succeeds. The updated snapshot is returned.
func (s *MemoryStore) Update(id string, fn func(job *models.SyncJob) error) (models.SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.SyncJob{}, ErrJobNotFound
	}
	if err := fn(&job); err != nil {
		return s.jobs[id], err
	}
	s.jobs[id] = job
	return job, nil
}

// SortNewestFirst orders jobs by StartedAt descending, breaking ties by id
func SortNewestFirst(jobs []models.SyncJob) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].StartedAt.Equal(jobs[j].StartedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
}

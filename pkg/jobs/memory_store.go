package jobs

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps job records in process memory. It backs direct mode and
// single-instance deployments without Redis.
type MemoryStore struct {
	cache *cache.Cache
}

var _ StateStore = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(ResultRetention, ResultRetention/6)}
}

func (s *MemoryStore) Save(_ context.Context, job *Job) error {
	copied := *job
	s.cache.Set(job.ID, &copied, cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, ErrJobNotFound
	}
	copied := *(x.(*Job))
	return &copied, nil
}

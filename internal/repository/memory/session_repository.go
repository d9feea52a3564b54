package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/QRui6/urban-inspection-rag/pkg/store"
)

// SessionRepository keeps analyze/complete sessions in process memory with a
// TTL, so an abandoned analyze step cannot leak state forever.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

// Consume removes the session under the lock, so two concurrent completions
// of the same session cannot both succeed.
func (r *SessionRepository) Consume(sessionID string) (*store.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	r.cache.Delete(sessionID)
	return x.(*store.Session), true
}

func (r *SessionRepository) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(sessionID)
}

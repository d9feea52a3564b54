package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QRui6/urban-inspection-rag/pkg/store"
)

func TestSessionRepositorySaveGet(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	repo.Save(&store.Session{ID: "s1", Query: "q", VisualAnalysis: "v", CreatedAt: time.Now()})

	got, found := repo.Get("s1")
	require.True(t, found)
	assert.Equal(t, "q", got.Query)
	assert.Equal(t, "v", got.VisualAnalysis)

	_, found = repo.Get("missing")
	assert.False(t, found)
}

func TestSessionRepositoryConsumeIsOneShot(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	repo.Save(&store.Session{ID: "s1"})

	_, ok := repo.Consume("s1")
	require.True(t, ok)
	_, ok = repo.Consume("s1")
	assert.False(t, ok, "second consume must miss")
	_, ok = repo.Get("s1")
	assert.False(t, ok)
}

func TestSessionRepositoryConcurrentConsume(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	for i := 0; i < 20; i++ {
		repo.Save(&store.Session{ID: fmt.Sprintf("s%d", i)})
	}

	var wg sync.WaitGroup
	wins := make(chan string, 200)
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				id := fmt.Sprintf("s%d", i)
				if _, ok := repo.Consume(id); ok {
					wins <- id
				}
			}
		}()
	}
	wg.Wait()
	close(wins)

	seen := map[string]int{}
	for id := range wins {
		seen[id]++
	}
	assert.Len(t, seen, 20)
	for id, n := range seen {
		assert.Equal(t, 1, n, "session %s consumed more than once", id)
	}
}

func TestSessionRepositoryDelete(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	repo.Save(&store.Session{ID: "s1"})
	repo.Delete("s1")
	_, found := repo.Get("s1")
	assert.False(t, found)
}

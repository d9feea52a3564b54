package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QRui6/urban-inspection-rag/internal/entity"
)

func newTestRepo(t *testing.T) *ManualChunkRepository {
	t.Helper()
	repo, err := NewManualChunkRepository(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func chunk(content string, embedding []float32) *entity.ManualChunk {
	return &entity.ManualChunk{
		Content:   content,
		ChunkType: "indicator_complete",
		Embedding: embedding,
	}
}

func TestSearchSimilarOrdersByCosineDistance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateBulk(ctx, []*entity.ManualChunk{
		chunk("identical", []float32{1, 0}),
		chunk("orthogonal", []float32{0, 1}),
		chunk("close", []float32{0.9, 0.1}),
	}))

	got, err := repo.SearchSimilar(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "identical", got[0].Chunk.Content)
	assert.Equal(t, "close", got[1].Chunk.Content)
	assert.Equal(t, "orthogonal", got[2].Chunk.Content)
	assert.InDelta(t, 0, got[0].Distance, 1e-6)
	assert.InDelta(t, 1, got[2].Distance, 1e-6)
	assert.Less(t, got[0].Distance, got[1].Distance)
}

func TestSearchSimilarSkipsDimensionMismatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, chunk("good", []float32{1, 0})))
	require.NoError(t, repo.Create(ctx, chunk("bad dims", []float32{1, 0, 0})))

	got, err := repo.SearchSimilar(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Chunk.Content)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	ctx := context.Background()

	repo, err := NewManualChunkRepository(path)
	require.NoError(t, err)
	c := chunk("persisted", []float32{0.5, 0.5})
	require.NoError(t, repo.Create(ctx, c))
	id := c.Id
	require.NoError(t, repo.Close())

	reopened, err := NewManualChunkRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.FindOne(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "persisted", found.Content)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUpsertReplacesAndDeleteRemoves(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := chunk("v1", []float32{1, 0})
	require.NoError(t, repo.Create(ctx, c))

	c.Content = "v2"
	require.NoError(t, repo.Upsert(ctx, c))

	found, err := repo.FindOne(ctx, c.Id)
	require.NoError(t, err)
	assert.Equal(t, "v2", found.Content)

	require.NoError(t, repo.Delete(ctx, c.Id))
	found, err = repo.FindOne(ctx, c.Id)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, repo.Delete(ctx, uuid.New()), "deleting a missing id is a no-op")
}

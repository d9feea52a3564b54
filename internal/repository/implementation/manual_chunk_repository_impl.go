package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/QRui6/urban-inspection-rag/internal/entity"
	"github.com/QRui6/urban-inspection-rag/internal/mapper"
	"github.com/QRui6/urban-inspection-rag/internal/model"
	"github.com/QRui6/urban-inspection-rag/internal/repository/contract"
	"github.com/QRui6/urban-inspection-rag/internal/repository/scope"
)

type ManualChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ManualChunkMapper
}

func NewManualChunkRepository(db *gorm.DB) contract.ManualChunkRepository {
	return &ManualChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewManualChunkMapper(),
	}
}

func (r *ManualChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.ManualChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *ManualChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.ManualChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.ManualChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (r *ManualChunkRepositoryImpl) Upsert(ctx context.Context, chunk *entity.ManualChunk) error {
	m := r.mapper.ToModel(chunk)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *ManualChunkRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ManualChunk{}, id).Error
}

func (r *ManualChunkRepositoryImpl) FindOne(ctx context.Context, id uuid.UUID) (*entity.ManualChunk, error) {
	var m model.ManualChunk
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ManualChunkRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ManualChunk{}).Count(&count).Error
	return count, err
}

func (r *ManualChunkRepositoryImpl) SearchSimilar(ctx context.Context, vector []float32, limit int) ([]*contract.ScoredManualChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type row struct {
		model.ManualChunk
		Distance float64 `gorm:"column:distance"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.ManualChunk{}).
		Select("*, embedding <=> ? AS distance", pgvector.NewVector(vector)).
		Scopes(scope.ExcludeSoftDelete).
		Order(gorm.Expr("embedding <=> ?", pgvector.NewVector(vector))).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredManualChunk, len(rows))
	for i := range rows {
		scored[i] = &contract.ScoredManualChunk{
			Chunk:    r.mapper.ToEntity(&rows[i].ManualChunk),
			Distance: rows[i].Distance,
		}
	}
	return scored, nil
}

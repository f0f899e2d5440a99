package dao

import (
	"context"

	"github.com/google/uuid"
	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/haierkeys/folio-lifecycle-service/internal/model"
	"github.com/haierkeys/folio-lifecycle-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const collectionPortfolio = "portfolio"

// portfolioRepository 实现 domain.PortfolioRepository 接口
type portfolioRepository struct {
	dao *Dao
}

// NewPortfolioRepository 创建 PortfolioRepository 实例
func NewPortfolioRepository(dao *Dao) domain.PortfolioRepository {
	return &portfolioRepository{dao: dao}
}

var _ domain.PortfolioRepository = (*portfolioRepository)(nil)

// toDomain 将数据库模型转换为领域模型
func (r *portfolioRepository) toDomain(m *model.Portfolio) (*domain.Portfolio, error) {
	p := &domain.Portfolio{
		ID:           m.ID,
		Slug:         m.Slug,
		OwnerID:      m.OwnerID,
		TemplateID:   m.TemplateID,
		Title:        m.Title,
		IsPublished:  m.IsPublished,
		Views:        m.Views,
		Version:      m.Version,
		Revision:     m.Revision,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		LastEditedAt: m.LastEditedAt.UTC(),
	}
	if m.PublishedAt != nil {
		at := m.PublishedAt.UTC()
		p.PublishedAt = &at
	}
	for _, f := range []struct {
		raw  []byte
		dest any
	}{
		{m.Content, &p.Content},
		{m.Customizations, &p.Customizations},
		{m.SEOSettings, &p.SEOSettings},
		{m.History, &p.History},
	} {
		if err := unmarshalJSON(f.raw, f.dest); err != nil {
			r.dao.Logger().Error("portfolio row holds malformed JSON",
				zap.String(logger.FieldPortfolioID, m.ID),
				zap.String(logger.FieldMethod, "portfolioRepository.toDomain"),
				zap.Error(err))
			return nil, err
		}
	}
	if p.Content.Sections == nil {
		p.Content.Sections = []domain.Section{}
	}
	if p.History == nil {
		p.History = domain.History{}
	}
	return p, nil
}

// toModel 将领域模型转换为数据库模型
func (r *portfolioRepository) toModel(p *domain.Portfolio) (*model.Portfolio, error) {
	m := &model.Portfolio{
		ID:           p.ID,
		Slug:         p.Slug,
		OwnerID:      p.OwnerID,
		TemplateID:   p.TemplateID,
		Title:        p.Title,
		IsPublished:  p.IsPublished,
		PublishedAt:  p.PublishedAt,
		Views:        p.Views,
		Version:      p.Version,
		Revision:     p.Revision,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		LastEditedAt: p.LastEditedAt,
	}
	var err error
	if m.Content, err = marshalJSON(p.Content); err != nil {
		return nil, err
	}
	if m.Customizations, err = marshalJSON(p.Customizations); err != nil {
		return nil, err
	}
	if m.SEOSettings, err = marshalJSON(p.SEOSettings); err != nil {
		return nil, err
	}
	if m.History, err = marshalJSON(p.History); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *portfolioRepository) query(ctx context.Context, filter domain.PortfolioFilter) *gorm.DB {
	q := r.dao.DB().WithContext(ctx).Model(&model.Portfolio{})
	if filter.Slug != "" {
		q = q.Where("slug = ?", filter.Slug)
	}
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Published != nil {
		q = q.Where("is_published = ?", *filter.Published)
	}
	if filter.ExcludeID != "" {
		q = q.Where("id <> ?", filter.ExcludeID)
	}
	return q
}

// GetByID 根据 ID 获取作品集
func (r *portfolioRepository) GetByID(ctx context.Context, id string) (*domain.Portfolio, error) {
	var m model.Portfolio
	if err := r.dao.DB().WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toDomain(&m)
}

// FindOne 获取第一条匹配的作品集
func (r *portfolioRepository) FindOne(ctx context.Context, filter domain.PortfolioFilter) (*domain.Portfolio, error) {
	var m model.Portfolio
	if err := r.query(ctx, filter).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toDomain(&m)
}

// Find 查询作品集列表
func (r *portfolioRepository) Find(ctx context.Context, filter domain.PortfolioFilter, s domain.Sort) ([]*domain.Portfolio, error) {
	var rows []*model.Portfolio
	err := r.query(ctx, filter).
		Clauses(orderBy(s, domain.SortByCreatedAt, domain.SortByUpdatedAt)).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]*domain.Portfolio, 0, len(rows))
	for _, m := range rows {
		p, err := r.toDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Insert 创建作品集
func (r *portfolioRepository) Insert(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	stored := p.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.Revision = 1

	m, err := r.toModel(stored)
	if err != nil {
		return nil, err
	}
	err = r.dao.ExecuteWrite(ctx, collectionPortfolio, func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return stored, nil
}

// Save writes every editable column when the stored revision still equals expectedRevision
// Save 当存储的修订号仍等于 expectedRevision 时写入全部可编辑列
func (r *portfolioRepository) Save(ctx context.Context, p *domain.Portfolio, expectedRevision int64) (*domain.Portfolio, error) {
	m, err := r.toModel(p)
	if err != nil {
		return nil, err
	}
	err = r.dao.ExecuteWrite(ctx, collectionPortfolio, func(tx *gorm.DB) error {
		res := tx.Model(&model.Portfolio{}).
			Where("id = ? AND revision = ?", p.ID, expectedRevision).
			Updates(map[string]any{
				"slug":           m.Slug,
				"title":          m.Title,
				"content":        m.Content,
				"customizations": m.Customizations,
				"seo_settings":   m.SEOSettings,
				"is_published":   m.IsPublished,
				"published_at":   m.PublishedAt,
				"version":        m.Version,
				"history":        m.History,
				"updated_at":     m.UpdatedAt,
				"last_edited_at": m.LastEditedAt,
				"revision":       gorm.Expr("revision + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrStale(tx, &model.Portfolio{}, p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return r.GetByID(ctx, p.ID)
}

// Delete 删除作品集
func (r *portfolioRepository) Delete(ctx context.Context, id string, expectedRevision int64) error {
	err := r.dao.ExecuteWrite(ctx, collectionPortfolio, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND revision = ?", id, expectedRevision).Delete(&model.Portfolio{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrStale(tx, &model.Portfolio{}, id)
		}
		return nil
	})
	return translateError(err)
}

// IncrementViews adds one view in place, the revision is untouched
// IncrementViews 原地增加一次访问量，不改变修订号
func (r *portfolioRepository) IncrementViews(ctx context.Context, id string) error {
	err := r.dao.ExecuteWrite(ctx, collectionPortfolio, func(tx *gorm.DB) error {
		res := tx.Model(&model.Portfolio{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrRecordNotFound
		}
		return nil
	})
	return translateError(err)
}

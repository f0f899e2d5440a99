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

const collectionTemplate = "template"

// templateRepository 实现 domain.TemplateRepository 接口
type templateRepository struct {
	dao *Dao
}

// NewTemplateRepository 创建 TemplateRepository 实例
func NewTemplateRepository(dao *Dao) domain.TemplateRepository {
	return &templateRepository{dao: dao}
}

var _ domain.TemplateRepository = (*templateRepository)(nil)

// toDomain 将数据库模型转换为领域模型
func (r *templateRepository) toDomain(m *model.Template) (*domain.Template, error) {
	t := &domain.Template{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Category:    m.Category,
		Thumbnail:   m.Thumbnail,
		IsPremium:   m.IsPremium,
		Popularity:  m.Popularity,
		UsageCount:  m.UsageCount,
		Rating:      domain.Rating{Average: m.RatingAverage, Count: m.RatingCount},
		IsActive:    m.IsActive,
		Revision:    m.Revision,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	for _, f := range []struct {
		raw  []byte
		dest any
	}{
		{m.Tags, &t.Tags},
		{m.Structure, &t.Structure},
		{m.DefaultContent, &t.DefaultContent},
		{m.Styles, &t.Styles},
	} {
		if err := unmarshalJSON(f.raw, f.dest); err != nil {
			r.dao.Logger().Error("template row holds malformed JSON",
				zap.String(logger.FieldTemplateID, m.ID),
				zap.String(logger.FieldMethod, "templateRepository.toDomain"),
				zap.Error(err))
			return nil, err
		}
	}
	return t, nil
}

// toModel 将领域模型转换为数据库模型
func (r *templateRepository) toModel(t *domain.Template) (*model.Template, error) {
	m := &model.Template{
		ID:            t.ID,
		Name:          t.Name,
		Slug:          t.Slug,
		Description:   t.Description,
		Category:      t.Category,
		Thumbnail:     t.Thumbnail,
		IsPremium:     t.IsPremium,
		Popularity:    t.Popularity,
		UsageCount:    t.UsageCount,
		RatingAverage: t.Rating.Average,
		RatingCount:   t.Rating.Count,
		IsActive:      t.IsActive,
		Revision:      t.Revision,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	var err error
	if m.Tags, err = marshalJSON(t.Tags); err != nil {
		return nil, err
	}
	if m.Structure, err = marshalJSON(t.Structure); err != nil {
		return nil, err
	}
	if m.DefaultContent, err = marshalJSON(t.DefaultContent); err != nil {
		return nil, err
	}
	if m.Styles, err = marshalJSON(t.Styles); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *templateRepository) query(ctx context.Context, filter domain.TemplateFilter) *gorm.DB {
	q := r.dao.DB().WithContext(ctx).Model(&model.Template{})
	if filter.Name != "" {
		q = q.Where("name = ?", filter.Name)
	}
	if filter.Slug != "" {
		q = q.Where("slug = ?", filter.Slug)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}
	if filter.ExcludeID != "" {
		q = q.Where("id <> ?", filter.ExcludeID)
	}
	return q
}

// GetByID 根据 ID 获取模板
func (r *templateRepository) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	var m model.Template
	if err := r.dao.DB().WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toDomain(&m)
}

// FindOne 获取第一条匹配的模板
func (r *templateRepository) FindOne(ctx context.Context, filter domain.TemplateFilter) (*domain.Template, error) {
	var m model.Template
	if err := r.query(ctx, filter).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toDomain(&m)
}

// Find 查询模板列表
func (r *templateRepository) Find(ctx context.Context, filter domain.TemplateFilter, s domain.Sort) ([]*domain.Template, error) {
	var rows []*model.Template
	err := r.query(ctx, filter).
		Clauses(orderBy(s,
			domain.SortByCreatedAt,
			domain.SortByUpdatedAt,
			domain.SortByPopularity,
			domain.SortByUsage,
			domain.SortByRating,
		)).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]*domain.Template, 0, len(rows))
	for _, m := range rows {
		t, err := r.toDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Insert 创建模板
func (r *templateRepository) Insert(ctx context.Context, t *domain.Template) (*domain.Template, error) {
	stored := t.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.Revision = 1

	m, err := r.toModel(stored)
	if err != nil {
		return nil, err
	}
	err = r.dao.ExecuteWrite(ctx, collectionTemplate, func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return stored, nil
}

// Save writes every editable column when the stored revision still equals expectedRevision
// Save 当存储的修订号仍等于 expectedRevision 时写入全部可编辑列
func (r *templateRepository) Save(ctx context.Context, t *domain.Template, expectedRevision int64) (*domain.Template, error) {
	m, err := r.toModel(t)
	if err != nil {
		return nil, err
	}
	err = r.dao.ExecuteWrite(ctx, collectionTemplate, func(tx *gorm.DB) error {
		res := tx.Model(&model.Template{}).
			Where("id = ? AND revision = ?", t.ID, expectedRevision).
			Updates(map[string]any{
				"name":            m.Name,
				"slug":            m.Slug,
				"description":     m.Description,
				"category":        m.Category,
				"tags":            m.Tags,
				"thumbnail":       m.Thumbnail,
				"is_premium":      m.IsPremium,
				"structure":       m.Structure,
				"default_content": m.DefaultContent,
				"styles":          m.Styles,
				"popularity":      m.Popularity,
				"usage_count":     m.UsageCount,
				"rating_average":  m.RatingAverage,
				"rating_count":    m.RatingCount,
				"is_active":       m.IsActive,
				"updated_at":      m.UpdatedAt,
				"revision":        gorm.Expr("revision + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrStale(tx, &model.Template{}, t.ID)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return r.GetByID(ctx, t.ID)
}

// bump applies an in-place counter update and bumps the revision
// bump 原地更新计数器并递增修订号
func (r *templateRepository) bump(ctx context.Context, id string, activeOnly bool, columns map[string]any) error {
	columns["revision"] = gorm.Expr("revision + 1")
	err := r.dao.ExecuteWrite(ctx, collectionTemplate, func(tx *gorm.DB) error {
		q := tx.Model(&model.Template{}).Where("id = ?", id)
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		res := q.UpdateColumns(columns)
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

// IncrementUsage 使用次数加一，已停用的模板视为不存在
func (r *templateRepository) IncrementUsage(ctx context.Context, id string) error {
	return r.bump(ctx, id, true, map[string]any{"usage_count": gorm.Expr("usage_count + ?", 1)})
}

// AddPopularity 增加热度
func (r *templateRepository) AddPopularity(ctx context.Context, id string, delta float64) error {
	return r.bump(ctx, id, false, map[string]any{"popularity": gorm.Expr("popularity + ?", delta)})
}

// Package domain 定义领域模型和接口
package domain

import (
	"context"
	"errors"
)

// Repository sentinel errors, mapped to error codes by the service layer
// 仓储层哨兵错误，由服务层映射为错误码
var (
	// ErrRecordNotFound the addressed document does not exist
	// ErrRecordNotFound 目标文档不存在
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateKey a unique column (slug or name) is already taken
	// ErrDuplicateKey 唯一列（别名或名称）已被占用
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrRevisionMismatch the stored revision no longer matches the expected one
	// ErrRevisionMismatch 存储的修订号与期望值不一致
	ErrRevisionMismatch = errors.New("revision mismatch")
)

// SortField 排序字段
type SortField string

const (
	SortByCreatedAt  SortField = "created_at"
	SortByUpdatedAt  SortField = "updated_at"
	SortByPopularity SortField = "popularity"
	SortByUsage      SortField = "usage_count"
	SortByRating     SortField = "rating_average"
)

// Sort 排序方式
type Sort struct {
	Field SortField
	Desc  bool
}

// PortfolioFilter matches portfolios, zero fields are ignored
// PortfolioFilter 作品集查询条件，零值字段不参与过滤
type PortfolioFilter struct {
	Slug      string
	OwnerID   string
	Published *bool
	// ExcludeID skips the document with this id
	// ExcludeID 排除该 ID 对应的文档
	ExcludeID string
}

// TemplateFilter matches templates, zero fields are ignored
// TemplateFilter 模板查询条件，零值字段不参与过滤
type TemplateFilter struct {
	Name      string
	Slug      string
	Category  string
	Active    *bool
	ExcludeID string
}

// PortfolioRepository 作品集仓储接口
type PortfolioRepository interface {
	// GetByID 根据ID获取作品集
	GetByID(ctx context.Context, id string) (*Portfolio, error)

	// FindOne 获取第一个匹配条件的作品集
	FindOne(ctx context.Context, filter PortfolioFilter) (*Portfolio, error)

	// Find 获取所有匹配条件的作品集
	Find(ctx context.Context, filter PortfolioFilter, sort Sort) ([]*Portfolio, error)

	// Insert stores a new portfolio, ErrDuplicateKey when the slug is taken
	// Insert 新增作品集，别名被占用时返回 ErrDuplicateKey
	Insert(ctx context.Context, p *Portfolio) (*Portfolio, error)

	// Save writes p when the stored revision equals expectedRevision, ErrRevisionMismatch otherwise.
	// Views, ownership, template origin and creation time are never written by Save.
	// Save 仅当存储的修订号等于 expectedRevision 时写入，否则返回 ErrRevisionMismatch。
	// 访问量、所有者、来源模板与创建时间不会被 Save 修改。
	Save(ctx context.Context, p *Portfolio, expectedRevision int64) (*Portfolio, error)

	// Delete 按修订号物理删除作品集
	Delete(ctx context.Context, id string, expectedRevision int64) error

	// IncrementViews atomically adds one view
	// IncrementViews 原子增加一次访问量
	IncrementViews(ctx context.Context, id string) error
}

// TemplateRepository 模板仓储接口
type TemplateRepository interface {
	// GetByID 根据ID获取模板（包含已停用模板）
	GetByID(ctx context.Context, id string) (*Template, error)

	// FindOne 获取第一个匹配条件的模板
	FindOne(ctx context.Context, filter TemplateFilter) (*Template, error)

	// Find 获取所有匹配条件的模板
	Find(ctx context.Context, filter TemplateFilter, sort Sort) ([]*Template, error)

	// Insert stores a new template, ErrDuplicateKey when name or slug is taken
	// Insert 新增模板，名称或别名被占用时返回 ErrDuplicateKey
	Insert(ctx context.Context, t *Template) (*Template, error)

	// Save 仅当存储的修订号等于 expectedRevision 时写入
	Save(ctx context.Context, t *Template, expectedRevision int64) (*Template, error)

	// IncrementUsage atomically adds one usage and bumps the revision,
	// an inactive template reports ErrRecordNotFound
	// IncrementUsage 原子增加一次使用次数并递增修订号，已停用的模板返回 ErrRecordNotFound
	IncrementUsage(ctx context.Context, id string) error

	// AddPopularity atomically adds delta to popularity and bumps the revision
	// AddPopularity 原子增加热度并递增修订号
	AddPopularity(ctx context.Context, id string, delta float64) error
}

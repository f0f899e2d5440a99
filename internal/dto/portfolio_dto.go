// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// PortfolioDTO Portfolio data transfer object
// PortfolioDTO 作品集数据传输对象
type PortfolioDTO struct {
	ID             string                `json:"id"`
	Slug           string                `json:"slug"`
	OwnerID        string                `json:"ownerId"`
	TemplateID     string                `json:"templateId,omitempty"`
	Title          string                `json:"title"`
	Content        domain.Content        `json:"content"`
	Customizations domain.Customizations `json:"customizations"`
	SEOSettings    domain.Document       `json:"seoSettings,omitempty"`
	IsPublished    bool                  `json:"isPublished"`
	PublishedAt    *time.Time            `json:"publishedAt"`
	PublicURL      string                `json:"publicUrl,omitempty"`
	Views          int64                 `json:"views"`
	Version        int64                 `json:"version"`
	HistoryCount   int                   `json:"historyCount"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	LastEditedAt   time.Time             `json:"lastEditedAt"`
}

// PortfolioCreateRequest Request parameters for creating a portfolio
// PortfolioCreateRequest 创建作品集的请求参数
type PortfolioCreateRequest struct {
	OwnerID    string `json:"ownerId" validate:"required"`
	Title      string `json:"title" validate:"required,max=100"`
	TemplateID string `json:"templateId"`
}

// PortfolioUpdateRequest Partial update, nil fields are left unchanged
// PortfolioUpdateRequest 部分更新，nil 字段保持不变
type PortfolioUpdateRequest struct {
	Title          *string                `json:"title" validate:"omitempty,min=1,max=100"`
	Content        *domain.Content        `json:"content"`
	Customizations *domain.Customizations `json:"customizations"`
	SEOSettings    *domain.Document       `json:"seoSettings"`
}

// PublishResult Result of a publish toggle
// PublishResult 发布状态切换结果
type PublishResult struct {
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt"`
	PublicURL   string     `json:"publicUrl,omitempty"`
}

// PortfolioHistoryDTO One archived snapshot with its diff against the current content
// PortfolioHistoryDTO 一条历史快照及其与当前内容的差异
type PortfolioHistoryDTO struct {
	Version        int64                 `json:"version"`
	SavedAt        time.Time             `json:"savedAt"`
	Content        domain.Content        `json:"content"`
	Customizations domain.Customizations `json:"customizations"`
	Diffs          []diffmatchpatch.Diff `json:"diffs"`
}

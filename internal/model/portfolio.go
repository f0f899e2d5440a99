package model

import (
	"time"

	"gorm.io/datatypes"
)

// Portfolio row of the portfolio table, JSON documents stored as JSON columns
// Portfolio 作品集表记录，文档字段以 JSON 列存储
type Portfolio struct {
	ID             string         `gorm:"column:id;primaryKey;size:36" json:"id" form:"id"`
	Slug           string         `gorm:"column:slug;size:191;not null;uniqueIndex:idx_portfolio_slug" json:"slug" form:"slug"`
	OwnerID        string         `gorm:"column:owner_id;size:64;not null;index:idx_portfolio_owner,priority:1" json:"ownerId" form:"ownerId"`
	TemplateID     string         `gorm:"column:template_id;size:36;index:idx_portfolio_template" json:"templateId" form:"templateId"`
	Title          string         `gorm:"column:title;size:400;not null" json:"title" form:"title"`
	Content        datatypes.JSON `gorm:"column:content" json:"content" form:"content"`
	Customizations datatypes.JSON `gorm:"column:customizations" json:"customizations" form:"customizations"`
	SEOSettings    datatypes.JSON `gorm:"column:seo_settings" json:"seoSettings" form:"seoSettings"`
	IsPublished    bool           `gorm:"column:is_published;not null" json:"isPublished" form:"isPublished"`
	PublishedAt    *time.Time     `gorm:"column:published_at" json:"publishedAt" form:"publishedAt"`
	Views          int64          `gorm:"column:views;not null" json:"views" form:"views"`
	Version        int64          `gorm:"column:version;not null" json:"version" form:"version"`
	History        datatypes.JSON `gorm:"column:history" json:"history" form:"history"`
	Revision       int64          `gorm:"column:revision;not null" json:"revision" form:"revision"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime:false;index:idx_portfolio_owner,priority:2" json:"updatedAt" form:"updatedAt"`
	LastEditedAt   time.Time      `gorm:"column:last_edited_at" json:"lastEditedAt" form:"lastEditedAt"`
}

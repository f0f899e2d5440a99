package model

import (
	"time"

	"gorm.io/datatypes"
)

// Template 模板表记录
type Template struct {
	ID             string         `gorm:"column:id;primaryKey;size:36" json:"id" form:"id"`
	Name           string         `gorm:"column:name;size:191;not null;uniqueIndex:idx_template_name" json:"name" form:"name"`
	Slug           string         `gorm:"column:slug;size:191;not null;uniqueIndex:idx_template_slug" json:"slug" form:"slug"`
	Description    string         `gorm:"column:description;type:text" json:"description" form:"description"`
	Category       string         `gorm:"column:category;size:50;index:idx_template_category" json:"category" form:"category"`
	Tags           datatypes.JSON `gorm:"column:tags" json:"tags" form:"tags"`
	Thumbnail      string         `gorm:"column:thumbnail;size:1024" json:"thumbnail" form:"thumbnail"`
	IsPremium      bool           `gorm:"column:is_premium;not null" json:"isPremium" form:"isPremium"`
	Structure      datatypes.JSON `gorm:"column:structure" json:"structure" form:"structure"`
	DefaultContent datatypes.JSON `gorm:"column:default_content" json:"defaultContent" form:"defaultContent"`
	Styles         datatypes.JSON `gorm:"column:styles" json:"styles" form:"styles"`
	Popularity     float64        `gorm:"column:popularity;not null;index:idx_template_popularity" json:"popularity" form:"popularity"`
	UsageCount     int64          `gorm:"column:usage_count;not null" json:"usageCount" form:"usageCount"`
	RatingAverage  float64        `gorm:"column:rating_average;not null" json:"ratingAverage" form:"ratingAverage"`
	RatingCount    int64          `gorm:"column:rating_count;not null" json:"ratingCount" form:"ratingCount"`
	IsActive       bool           `gorm:"column:is_active;not null;index:idx_template_active" json:"isActive" form:"isActive"`
	Revision       int64          `gorm:"column:revision;not null" json:"revision" form:"revision"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}
